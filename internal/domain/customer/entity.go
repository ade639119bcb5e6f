// internal/domain/customer/entity.go
package customer

import (
	"encoding/json"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Customer is one managed person or lead.
type Customer struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Address   string  `json:"address"`
	Product   Product `json:"product"`
	Status    Status  `json:"status"`

	// Insertion order from the editing UI, not meaningful.
	Tags []string `json:"tags"`

	// Only relevant for ProductExpertAdvisor.
	AccountIDs [4]string `json:"account_ids"`

	OrderDate    Date `json:"order_date"` // only relevant for StatusPurchased
	FirstContact Date `json:"first_contact"`

	// Completion flags, meaningful only for StatusPurchased.
	InvoiceSent     bool `json:"invoice_sent"`
	InvoicePaid     bool `json:"invoice_paid"`
	MemberAccess    bool `json:"member_access"`
	DocumentsSent   bool `json:"documents_sent"`
	DocumentsSigned bool `json:"documents_signed"`
}

// FullName joins first and last name for display.
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// NameKey is the case-insensitive, trimmed identity used for duplicate detection.
func (c *Customer) NameKey() string {
	return NameKey(c.FirstName, c.LastName)
}

func NameKey(first, last string) string {
	return strings.ToLower(strings.TrimSpace(first)) + "\x00" + strings.ToLower(strings.TrimSpace(last))
}

func (c *Customer) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (c *Customer) IsPurchased() bool {
	return c.Status == StatusPurchased
}

// Date is a calendar day without time of day. The zero value renders empty.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or an empty string. Timestamps written by
// spreadsheet tools ("2024-05-01 00:00:00") are truncated to the day.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if len(s) > len(DateLayout) && (s[len(DateLayout)] == ' ' || s[len(DateLayout)] == 'T') {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
