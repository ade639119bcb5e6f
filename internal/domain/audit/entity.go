package audit

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Action is what happened to a customer row.
type Action string

const (
	ActionCreated  Action = "created"
	ActionEdited   Action = "edited"
	ActionDeleted  Action = "deleted"
	ActionRestored Action = "restored"
)

// NoChanges is the detail text of an edit that changed nothing.
const NoChanges = "Keine Änderungen"

const TimestampLayout = "2006-01-02 15:04:05"

const (
	ColTimestamp  = "Zeitpunkt"
	ColUser       = "Benutzer"
	ColAction     = "Aktion"
	ColCustomerID = "Kunden-ID"
	ColDetail     = "Details"
)

var Columns = []string{ColTimestamp, ColUser, ColAction, ColCustomerID, ColDetail}

// Entry is an immutable record of one action. CustomerID is zero for actions
// that concern a whole table, such as a restore.
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	User       string    `json:"user"`
	Action     Action    `json:"action"`
	CustomerID int64     `json:"customer_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

func (e *Entry) Cells() []string {
	id := ""
	if e.CustomerID > 0 {
		id = strconv.FormatInt(e.CustomerID, 10)
	}
	return []string{e.Timestamp.Format(TimestampLayout), e.User, string(e.Action), id, e.Detail}
}

func ParseRow(header, cells []string) (Entry, string, error) {
	get := func(col string) string {
		for i, h := range header {
			if h == col && i < len(cells) {
				return cells[i]
			}
		}
		return ""
	}

	rawTime := strings.TrimSpace(get(ColTimestamp))
	at, err := time.ParseInLocation(TimestampLayout, rawTime, time.Local)
	if err != nil {
		return Entry{}, ColTimestamp, fmt.Errorf("invalid timestamp %q", rawTime)
	}
	var id int64
	if raw := strings.TrimSpace(get(ColCustomerID)); raw != "" {
		id, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Entry{}, ColCustomerID, fmt.Errorf("invalid customer id %q", raw)
		}
	}
	return Entry{
		Timestamp:  at,
		User:       get(ColUser),
		Action:     Action(get(ColAction)),
		CustomerID: id,
		Detail:     get(ColDetail),
	}, "", nil
}
