package status

// Status names.
const (
	// 1xxx - success
	OK             Name = "API_OK"
	NoRecordsFound Name = "API_NO_RECORDS_FOUND"

	// 40xx - HTTP-level client errors
	BadRequest                  Name = "API_BAD_REQUEST"
	UnauthorizedAccess          Name = "API_UNAUTHORIZED_ACCESS"
	Forbidden                   Name = "API_FORBIDDEN"
	ResourceNotFound            Name = "API_RESOURCE_NOT_FOUND"
	InvalidRequestMethod        Name = "API_INVALID_REQUEST_METHOD"
	ContentNotAccepted          Name = "API_CONTENT_NOT_ACCEPTED"
	RequestTimedOut             Name = "API_REQUEST_TIMED_OUT"
	TooManyRequests             Name = "API_TOO_MANY_REQUESTS"
	ConflictInRequest           Name = "API_CONFLICT_IN_REQUEST"
	RequestURLNoLongerAvailable Name = "API_REQUEST_URL_NO_LONGER_AVAILABLE"
	ContentLengthMissing        Name = "API_CONTENT_LENGTH_MISSING"
	PreconditionFailed          Name = "API_PRECONDITION_FAILED"
	RequestEntityTooLarge       Name = "API_REQUEST_ENTITY_TOO_LARGE"

	// 41xx - input validation
	InputValidationFailed    Name = "API_INPUT_VALIDATION_FAILED"
	MissingParameter         Name = "API_MISSING_PARAMETER"
	EmptyValueProvided       Name = "API_EMPTY_VALUE_PROVIDED"
	ValueTooShort            Name = "API_VALUE_TOO_SHORT"
	ValueTooLong             Name = "API_VALUE_TOO_LONG"
	ValueTooSmall            Name = "API_VALUE_TOO_SMALL"
	ValueTooBig              Name = "API_VALUE_TOO_BIG"
	ValueTooHigh             Name = "API_VALUE_TOO_HIGH"
	ValueTooLow              Name = "API_VALUE_TOO_LOW"
	InvalidValue             Name = "API_INVALID_VALUE"
	InvalidDataType          Name = "API_INVALID_DATA_TYPE"
	StringValueRequired      Name = "API_STRING_VALUE_REQUIRED"
	IntegerValueRequired     Name = "API_INTEGER_VALUE_REQUIRED"
	RealNumberValueRequired  Name = "API_REAL_NUMBER_VALUE_REQUIRED"
	BooleanValueRequired     Name = "API_BOOLEAN_VALUE_REQUIRED"
	UnicodeValueRequired     Name = "API_UNICODE_VALUE_REQUIRED"
	DoNotAcceptParam         Name = "API_DONOT_ACCEPT_PARAM"
	UnexpectedInputParameter Name = "API_UNEXPECTED_INPUT_PARAMETER"
	InvalidDataFormat        Name = "API_INVALID_DATA_FORMAT"
	InvalidCharacterFound    Name = "API_INVALID_CHARACTER_FOUND"
	DuplicateValue           Name = "API_DUPLICATE_VALUE"
	InvalidInputMethod       Name = "API_INVALID_INPUT_METHOD"
	InvalidContentHeader     Name = "API_INVALID_CONTENT_HEADER"
	MixedRequestContentType  Name = "API_MIXED_REQUEST_CONTENT_TYPE"

	// 42xx - data access
	DatabaseResourceNotFound Name = "API_DATABASE_RESOURCE_NOT_FOUND"
	ForbiddenAccess          Name = "API_FORBIDDEN_ACCESS"
	ForbiddenDelete          Name = "API_FORBIDDEN_DELETE"
	ForbiddenUpdate          Name = "API_FORBIDDEN_UPDATE"
	DatabaseUpdateFailed     Name = "API_DATABASE_UPDATE_FAILED"
	DatabaseDeleteFailed     Name = "API_DATABASE_DELETE_FAILED"

	// 43xx - authentication
	AuthenticationError            Name = "API_AUTHENTICATION_ERROR"
	ExpiredTimestamp               Name = "API_EXPIRED_TIMESTAMP"
	UnexpectedOAuthSignatureMethod Name = "API_UNEXPECTED_OAUTH_SIGNATURE_METHOD"
	InvalidOAuthSignature          Name = "API_INVALID_OAUTH_SIGNATURE"
	UnknownOAuthConsumerKey        Name = "API_UNKNOWN_OAUTH_CONSUMER_KEY"
	AuthenticationRequired         Name = "API_AUTHENTICATION_REQUIRED"
	NonceAlreadyUsed               Name = "API_NONCE_ALREADY_USED"

	// 5xxx - server errors
	UnhandledException      Name = "API_UNHANDLED_EXCEPTION"
	CodeNotImplemented      Name = "API_CODE_NOT_IMPLEMENTED"
	ExternalAPIException    Name = "API_EXTERNAL_API_EXCEPTION"
	DatabaseOperationFailed Name = "API_DATABASE_OPERATION_FAILED"
)

var builtin = map[Name]Definition{
	OK:             {200, 1000, "Ok"},
	NoRecordsFound: {200, 1004, "No records found"},

	BadRequest:                  {400, 4000, "The API request can't be fulfilled due to bad syntax in URL"},
	UnauthorizedAccess:          {401, 4001, "The API request has not been authenticated"},
	Forbidden:                   {403, 4003, "The API request is not allowed."},
	ResourceNotFound:            {404, 4004, "Couldn't find the requested resource"},
	InvalidRequestMethod:        {405, 4005, "Method not supported"},
	ContentNotAccepted:          {406, 4006, "The API request can't be fulfilled due to unsupported response content"},
	RequestTimedOut:             {408, 4008, "A timeout occurred while trying to fulfil the requested API"},
	ConflictInRequest:           {409, 4009, "The API request can't be fulfilled due to a conflict with current state"},
	RequestURLNoLongerAvailable: {410, 4010, "The API request url is no longer served"},
	ContentLengthMissing:        {411, 4011, "The API request can't be fulfilled due to missing content length in header"},
	PreconditionFailed:          {412, 4012, "The API request can't be fulfilled due to failed preconditions in header"},
	RequestEntityTooLarge:       {413, 4013, "The API request can't be fulfilled due to oversized request entity"},
	TooManyRequests:             {429, 4029, "Too many requests, slow down"},

	InputValidationFailed:    {400, 4100, "Input validation error"},
	MissingParameter:         {400, 4101, "Missing parameter '{parameter}'"},
	EmptyValueProvided:       {400, 4102, "Value can't be empty"},
	ValueTooShort:            {400, 4103, "Value is too short"},
	ValueTooLong:             {400, 4104, "Value is too long"},
	ValueTooSmall:            {400, 4105, "Value is too small"},
	ValueTooBig:              {400, 4106, "Value is too big"},
	ValueTooHigh:             {400, 4107, "{value} too high"},
	ValueTooLow:              {400, 4108, "{value} too low"},
	InvalidValue:             {400, 4109, "Invalid value '{value}'"},
	InvalidDataType:          {400, 4110, "Invalid data type for value"},
	StringValueRequired:      {400, 4111, "String value is needed"},
	IntegerValueRequired:     {400, 4112, "Integer value is needed"},
	RealNumberValueRequired:  {400, 4113, "Real Number value is needed"},
	BooleanValueRequired:     {400, 4114, "Boolean value is needed"},
	UnicodeValueRequired:     {400, 4115, "Unicode value is needed"},
	DoNotAcceptParam:         {400, 4116, "{key} can't be specified in parameter list."},
	UnexpectedInputParameter: {400, 4117, "{key} can't be updated in {model} model"},
	InvalidDataFormat:        {400, 4120, "Invalid input data format"},
	InvalidCharacterFound:    {400, 4121, "Invalid characters in value"},
	DuplicateValue:           {400, 4191, "Value already exists"},
	InvalidInputMethod:       {400, 4195, "The API request can't be fulfilled due to invalid HTTP method"},
	InvalidContentHeader:     {400, 4196, "Invalid content headers (Content type doesn't match with data)"},
	MixedRequestContentType:  {400, 4197, "Mixing of request content type"},

	DatabaseResourceNotFound: {404, 4204, "Requested {resource} not found"},
	ForbiddenAccess:          {401, 4203, "Forbidden - The {child_resource} belongs to another {parent_resource}"},
	ForbiddenDelete:          {401, 4205, "Cannot delete a {parent_resource} with active users or services"},
	ForbiddenUpdate:          {401, 4206, "Update not permitted"},
	DatabaseUpdateFailed:     {400, 4220, "Requested {resource} could not be updated with the given parameters"},
	DatabaseDeleteFailed:     {400, 4221, "Requested {resource} could not be deleted"},

	AuthenticationError:            {401, 4300, "Authentication error"},
	ExpiredTimestamp:               {401, 4301, "Expired timestamp"},
	UnexpectedOAuthSignatureMethod: {401, 4302, "Unexpected Oauth signature method"},
	InvalidOAuthSignature:          {401, 4303, "Invalid oauth signature"},
	UnknownOAuthConsumerKey:        {401, 4304, "Unknown consumer key"},
	AuthenticationRequired:         {401, 4305, "Authentication Required"},
	NonceAlreadyUsed:               {401, 4306, "Nonce already used"},

	UnhandledException:      {500, 5000, "An internal server error occurred"},
	CodeNotImplemented:      {501, 5001, "Code not implemented"},
	ExternalAPIException:    {500, 5100, "Request to external API caused an exception with status code - {resource}"},
	DatabaseOperationFailed: {500, 5203, "Database operation failed"},
}

var defaultCatalog = NewCatalog(builtin)

// Default returns the process-wide read-only catalog.
func Default() *Catalog {
	return defaultCatalog
}

// Get resolves a status from the default catalog.
func Get(name Name, args Args) (Status, error) {
	return defaultCatalog.Get(name, args)
}

// Fail builds a failure from the default catalog. See Catalog.Fail.
func Fail(name Name, args Args) *Error {
	return defaultCatalog.Fail(name, args)
}

// Must resolves an argument-free status from the default catalog.
func Must(name Name) Status {
	return defaultCatalog.Must(name)
}
