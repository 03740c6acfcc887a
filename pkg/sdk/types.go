package sdk

// ExportFormat selects the export endpoint.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportJSON ExportFormat = "json"
)

// IsValid returns true for csv and json.
func (f ExportFormat) IsValid() bool {
	return f == ExportCSV || f == ExportJSON
}

// DefaultFilename is used when the backend sends no Content-Disposition.
func (f ExportFormat) DefaultFilename() string {
	return "feedback." + string(f)
}

// Export is a downloaded export document.
type Export struct {
	Format   ExportFormat
	Filename string
	Data     []byte
	// Records is the number of feedback rows in the document.
	Records int
}

// SignupRequest is the body of POST /user/signup.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /user/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminLoginRequest is the body of POST /admin/login.
type AdminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// messageResponse covers the {message} / {error} bodies most endpoints return.
type messageResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type summaryResponse struct {
	Summary string `json:"summary"`
	Error   string `json:"error"`
}

type adminCheckResponse struct {
	Admin bool `json:"admin"`
}

type userCheckResponse struct {
	User bool `json:"user"`
}
