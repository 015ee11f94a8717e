package request

// RegisterRequest is the request body for registration
type RegisterRequest struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateLockerStatusRequest is the request body for the administrative
// status override
type UpdateLockerStatusRequest struct {
	Status string `json:"status"`
}

// JoinWaitlistRequest is the request body for joining the waitlist
type JoinWaitlistRequest struct {
	Email string `json:"email"`
}

// VerifyAccessCodeRequest is the request body for verifying an access code
type VerifyAccessCodeRequest struct {
	Code string `json:"code"`
}
