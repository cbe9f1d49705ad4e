package status

import (
	"errors"
	"testing"
)

func TestGet_Idempotent(t *testing.T) {
	a, err := Get(OK, nil)
	if err != nil {
		t.Fatalf("Get(OK) error = %v", err)
	}
	b, err := Get("API_OK", nil)
	if err != nil {
		t.Fatalf("Get(API_OK) error = %v", err)
	}
	if a != b {
		t.Errorf("Get(API_OK) twice = %v and %v, want equal", a, b)
	}
	if a.HTTPStatus != 200 || a.Code != 1000 || a.Message != "Ok" {
		t.Errorf("Get(API_OK) = %+v", a)
	}
	if a.IsFailure() {
		t.Error("API_OK should not be a failure")
	}
}

func TestGet_Substitution(t *testing.T) {
	s, err := Get(ValueTooHigh, Args{"value": "page"})
	if err != nil {
		t.Fatalf("Get error = %v", err)
	}
	if s.Message != "page too high" {
		t.Errorf("Message = %q, want %q", s.Message, "page too high")
	}
	if s.Code != 4107 || s.HTTPStatus != 400 {
		t.Errorf("codes = %d/%d, want 400/4107", s.HTTPStatus, s.Code)
	}
}

func TestGet_MissingParameter(t *testing.T) {
	_, err := Get(DatabaseResourceNotFound, Args{"other": 1})
	var missing *MissingParameterError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want *MissingParameterError", err)
	}
	if missing.Key != "resource" {
		t.Errorf("Key = %q, want resource", missing.Key)
	}
	if missing.Name != DatabaseResourceNotFound {
		t.Errorf("Name = %q, want %q", missing.Name, DatabaseResourceNotFound)
	}
}

func TestGet_Unknown(t *testing.T) {
	_, err := Get("API_DOES_NOT_EXIST", nil)
	var unknown *UnknownStatusError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want *UnknownStatusError", err)
	}
}

func TestFail_PanicsOnUnknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Fail with unknown name should panic")
		}
	}()
	Fail("API_NOPE", nil)
}

func TestAsError(t *testing.T) {
	e, err := Default().AsError(MissingParameter, Args{"parameter": "oauth_nonce"})
	if err != nil {
		t.Fatalf("AsError error = %v", err)
	}
	if e.Status.Message != "Missing parameter 'oauth_nonce'" {
		t.Errorf("Message = %q", e.Status.Message)
	}
	if !e.Status.IsFailure() {
		t.Error("4101 should be a failure")
	}
	if e.HTTPStatus() != 400 {
		t.Errorf("HTTPStatus = %d, want 400", e.HTTPStatus())
	}
}

func TestCatalog_BucketsMatchHTTP(t *testing.T) {
	c := Default()
	for _, name := range c.Names() {
		def, _ := c.Lookup(name)
		bucket := def.Code / 1000
		switch bucket {
		case 1:
			if def.HTTPStatus < 200 || def.HTTPStatus >= 300 {
				t.Errorf("%s: code %d with http %d", name, def.Code, def.HTTPStatus)
			}
		case 4:
			if def.HTTPStatus < 400 || def.HTTPStatus >= 500 {
				t.Errorf("%s: code %d with http %d", name, def.Code, def.HTTPStatus)
			}
		case 5:
			if def.HTTPStatus < 500 {
				t.Errorf("%s: code %d with http %d", name, def.Code, def.HTTPStatus)
			}
		default:
			t.Errorf("%s: unexpected bucket for code %d", name, def.Code)
		}
	}
}

func TestValidation(t *testing.T) {
	err := error(Validation(FieldErrors{"a": "bad", "b": "worse"}))

	if !IsValidation(err) {
		t.Fatal("IsValidation = false")
	}
	fields := ValidationErrors(err)
	if len(fields) != 2 || fields["a"] != "bad" || fields["b"] != "worse" {
		t.Errorf("ValidationErrors = %v", fields)
	}
	e, _ := From(err)
	if e.Status.Code != 4100 {
		t.Errorf("Code = %d, want 4100", e.Status.Code)
	}
}

func TestError_IsMatchesByName(t *testing.T) {
	a := Fail(Forbidden, nil)
	b := Fail(Forbidden, nil).With("k", "v")
	if !errors.Is(a, b) {
		t.Error("errors.Is should match errors with the same status name")
	}
	if errors.Is(a, Fail(ResourceNotFound, nil)) {
		t.Error("errors.Is should not match different status names")
	}
	if _, ok := b.Extra["k"]; !ok {
		t.Error("With should add extra entry")
	}
	if a.Extra != nil {
		t.Error("With must not mutate the receiver")
	}
}

func TestSynthesize(t *testing.T) {
	s := Synthesize(418, "I'm a teapot")
	if s.Code != 4180 || s.HTTPStatus != 418 || s.Message != "I'm a teapot" {
		t.Errorf("Synthesize = %+v", s)
	}
}

func TestError_WrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	e := Fail(DatabaseOperationFailed, nil).Wrap(cause).With("k", 1)

	if !errors.Is(e, cause) {
		t.Error("errors.Is(e, cause) = false")
	}
	if e.Status.Code != 5203 {
		t.Errorf("Code = %d, want 5203", e.Status.Code)
	}
}
