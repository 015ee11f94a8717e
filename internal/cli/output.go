package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case User:
		o.printUser(v)
	case AuthResult:
		o.printAuthResult(v)
	case Locker:
		o.printLocker(v)
	case LockerList:
		o.printLockerList(v)
	case ReturnResult:
		o.printReturnResult(v)
	case AccessCode:
		o.printAccessCode(v)
	case WaitlistResult:
		o.printWaitlist(v)
	case UserList:
		o.printUserList(v)
	case AuditLog:
		o.printAuditLog(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// User response type (matches API)
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin,omitempty"`
}

// AuthResult combines user and token
type AuthResult struct {
	User         User   `json:"user"`
	SessionToken string `json:"session_token"`
}

// Locker response type
type Locker struct {
	ID           int         `json:"id"`
	Status       string      `json:"status"`
	RentedBy     *string     `json:"rented_by"`
	RentalStart  *time.Time  `json:"rental_start"`
	DueDate      *time.Time  `json:"due_date"`
	AccessEvents []time.Time `json:"access_events,omitempty"`
}

// LockerList response type
type LockerList struct {
	Lockers []Locker `json:"lockers"`
}

// ReturnResult response type
type ReturnResult struct {
	Penalty int `json:"penalty"`
}

// AccessCode response type
type AccessCode struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// WaitlistResult response type
type WaitlistResult struct {
	Entries []string `json:"entries"`
}

// UserList response type
type UserList struct {
	Users []User `json:"users"`
}

// AuditEntry response type
type AuditEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Actor     string         `json:"actor"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details"`
}

// AuditLog response type
type AuditLog struct {
	Entries []AuditEntry `json:"entries"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printUser(u User) {
	adminStr := ""
	if u.IsAdmin {
		adminStr = " [admin]"
	}
	fmt.Printf("User: %s (%s)%s\n", u.Name, u.ID, adminStr)
	fmt.Printf("Email: %s\n", u.Email)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printUser(a.User)
	fmt.Printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printLocker(l Locker) {
	fmt.Printf("Locker %d: %s\n", l.ID, l.Status)
	if l.RentedBy != nil {
		fmt.Printf("Rented by: %s\n", *l.RentedBy)
	}
	if l.RentalStart != nil {
		fmt.Printf("Rental start: %s\n", l.RentalStart.Format(time.RFC3339))
	}
	if l.DueDate != nil {
		fmt.Printf("Due: %s\n", l.DueDate.Format(time.RFC3339))
	}
	if len(l.AccessEvents) > 0 {
		fmt.Printf("Access events: %d\n", len(l.AccessEvents))
	}
}

func (o *Output) printLockerList(list LockerList) {
	fmt.Printf("Lockers (%d):\n", len(list.Lockers))
	for _, l := range list.Lockers {
		line := fmt.Sprintf("  %3d  %-12s", l.ID, l.Status)
		if l.RentedBy != nil {
			line += "  " + *l.RentedBy
			if l.DueDate != nil {
				line += "  due " + l.DueDate.Format(time.RFC3339)
			}
		}
		fmt.Println(line)
	}
}

func (o *Output) printReturnResult(r ReturnResult) {
	fmt.Println("Locker returned")
	if r.Penalty > 0 {
		fmt.Printf("Late penalty: %d\n", r.Penalty)
	}
}

func (o *Output) printAccessCode(a AccessCode) {
	fmt.Printf("Access code: %s\n", a.Code)
	fmt.Printf("Expires: %s\n", a.ExpiresAt.Format(time.RFC3339))
}

func (o *Output) printWaitlist(w WaitlistResult) {
	if len(w.Entries) == 0 {
		fmt.Println("Waitlist is empty")
		return
	}
	fmt.Printf("Waitlist (%d):\n", len(w.Entries))
	for i, email := range w.Entries {
		fmt.Printf("  %d. %s\n", i+1, email)
	}
}

func (o *Output) printUserList(list UserList) {
	fmt.Printf("Users (%d):\n", len(list.Users))
	for _, u := range list.Users {
		adminStr := ""
		if u.IsAdmin {
			adminStr = " [admin]"
		}
		fmt.Printf("  - %s (%s) <%s>%s\n", u.Name, u.ID, u.Email, adminStr)
	}
}

func (o *Output) printAuditLog(log AuditLog) {
	fmt.Printf("Audit log (%d entries, newest first):\n", len(log.Entries))
	for _, e := range log.Entries {
		fmt.Printf("  %s  %-22s %s", e.Timestamp.Format(time.RFC3339), e.Action, e.Actor)
		if len(e.Details) > 0 {
			data, _ := json.Marshal(e.Details)
			fmt.Printf("  %s", string(data))
		}
		fmt.Println()
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
