// Package resources declares the sample resources served by hoops when
// api.sample_resources is enabled. They double as a reference for
// declaring resources against the app package.
package resources

import (
	"context"
	"fmt"
	"regexp"

	"github.com/artpar/hoops/adapters/hasher"
	"github.com/artpar/hoops/app"
	"github.com/artpar/hoops/domain/schema"
	"github.com/artpar/hoops/ports"
)

// Deps are the collaborators of the model-backed samples.
type Deps struct {
	Store  ports.RecordStore
	IDs    ports.IDGenerator
	Hasher ports.Hasher
}

// Tables used by the samples. They match the embedded SQL migrations.
var (
	Languages = ports.Table{
		Name:         "languages",
		TypeName:     "Language",
		Columns:      []string{"lang", "name", "active"},
		Filterable:   []string{"lang"},
		Sortable:     []string{"lang", "name"},
		Unique:       []string{"lang", "name"},
		ActiveColumn: "active",
	}

	Notes = ports.Table{
		Name:         "notes",
		TypeName:     "Note",
		Columns:      []string{"title", "body", "owner_ref", "active"},
		Filterable:   []string{"title"},
		Sortable:     []string{"title"},
		ActiveColumn: "active",
		OwnerColumn:  "owner_ref",
	}

	Accounts = ports.Table{
		Name:         "accounts",
		TypeName:     "Account",
		Columns:      []string{"username", "email", "password_hash", "owner_ref", "active"},
		Filterable:   []string{"username"},
		Sortable:     []string{"username"},
		Hidden:       []string{"password_hash"},
		Immutable:    []string{"username"},
		Unique:       []string{"username"},
		ActiveColumn: "active",
		OwnerColumn:  "owner_ref",
	}
)

var (
	langCode = regexp.MustCompile(`^[a-z]{2}$`)
	username = regexp.MustCompile(`^[a-z0-9_.-]+$`)

	emailAddress = schema.String().MaxLen(254).
			Expect(`value contains "@" && !(value startsWith "@") && !(value endsWith "@")`, "Enter a valid email address")
)

// Register adds every sample resource to r.
func Register(r *app.Registry, deps Deps) error {
	for _, spec := range Specs(deps) {
		if _, err := r.Register(spec); err != nil {
			return fmt.Errorf("register %s: %w", spec.Name, err)
		}
	}
	return nil
}

// Specs returns the sample resource declarations.
func Specs(deps Deps) []app.Spec {
	return []app.Spec{
		Echo(),
		LanguagesSpec(deps),
		NotesSpec(deps),
		AccountsSpec(deps),
	}
}

// Echo returns a resource whose operations reply with their validated
// params. Each verb declares a different schema.
func Echo() app.Spec {
	reply := func(example string) app.Handler {
		return func(ctx context.Context, c *app.Call) (app.Result, error) {
			return app.Result{Data: map[string]any{
				"example": example,
				"params":  c.CombinedParams(),
			}}, nil
		}
	}

	return app.Spec{
		Name:        "echo",
		Route:       "/echo",
		ObjectRoute: "/echo/{id}",
		Description: "Replies with the validated parameters",
		URLSchema:   schema.New(schema.F("id", schema.Int().Min(1))),
		List:        app.Implemented(reply("GET works")),
		Retrieve:    app.Implemented(reply("GET works")),
		Create: app.Implemented(reply("POST works"), app.WithSchema(schema.New(
			schema.F("foo", schema.String().MaxLen(3).Default("bar").
				Describe("Anything up to 3 characters long")),
		))),
		Update: app.Implemented(reply("PUT works"), app.WithSchema(schema.New(
			schema.F("foo", schema.Int().Max(42).
				Describe("An integer no greater than 42")),
		))),
		Remove: app.Implemented(reply("DELETE works"), app.WithSchema(schema.New(
			schema.F("foo", schema.OneOf(2, 4, 6, 8, 10).
				Describe("An even number between 1 and 10")),
		))),
	}
}

// LanguagesSpec serves the seeded languages table read-only.
func LanguagesSpec(deps Deps) app.Spec {
	return app.Spec{
		Name:        "languages",
		Route:       "/languages",
		ObjectRoute: "/languages/{id}",
		ReadOnly:    true,
		Description: "Active languages",
		Model:       &app.Model{Table: Languages, Store: deps.Store, IDs: deps.IDs},
		List: app.ModelList(app.WithSchema(schema.New(
			schema.F("lang", schema.String().Matching(langCode).Describe("Two-letter language code")),
		))),
		Retrieve: app.ModelRetrieve(),
	}
}

// NotesSpec serves notes owned by the authenticated caller.
func NotesSpec(deps Deps) app.Spec {
	fields := schema.New(
		schema.F("title", schema.String().MinLen(1).MaxLen(200)),
		schema.F("body", schema.String().MaxLen(10000)),
	)

	return app.Spec{
		Name:        "notes",
		Route:       "/notes",
		ObjectRoute: "/notes/{id}",
		Description: "Notes of the authenticated consumer",
		Model:       &app.Model{Table: Notes, Store: deps.Store, IDs: deps.IDs},
		List:        app.ModelList(app.WithSchema(schema.New(schema.F("title", schema.String())))),
		Retrieve:    app.ModelRetrieve(),
		Create:      app.ModelCreate(app.WithSchema(fields.With("title", schema.String().MinLen(1).MaxLen(200).Require()).Strict())),
		Update:      app.ModelUpdate(app.WithSchema(fields.Strict())),
		Remove:      app.ModelRemove(),
	}
}

// AccountsSpec serves accounts whose password is stored as a bcrypt hash
// and never returned.
func AccountsSpec(deps Deps) app.Spec {
	toHash := schema.Rename{From: "password", To: "password_hash", Convert: hasher.Converter(deps.Hasher)}

	return app.Spec{
		Name:        "accounts",
		Route:       "/accounts",
		ObjectRoute: "/accounts/{id}",
		Description: "Accounts with hashed passwords",
		Model:       &app.Model{Table: Accounts, Store: deps.Store, IDs: deps.IDs},
		List:        app.ModelList(app.WithSchema(schema.New(schema.F("username", schema.String())))),
		Retrieve:    app.ModelRetrieve(),
		Create: app.ModelCreate(
			app.WithSchema(schema.New(
				schema.F("username", schema.String().MinLen(3).MaxLen(32).Matching(username).Require()),
				schema.F("email", emailAddress),
				schema.F("password", schema.String().MinLen(8).Require()),
			).Strict()),
			app.WithRenames(toHash),
		),
		Update: app.ModelUpdate(
			app.WithSchema(schema.New(
				schema.F("email", emailAddress),
				schema.F("password", schema.String().MinLen(8)),
			).Strict()),
			app.WithRenames(toHash),
		),
		Remove: app.ModelRemove(),
	}
}
