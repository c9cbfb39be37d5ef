package audit

import (
	"fmt"
	"strings"
)

// CreateEvent records the creation of an annotation.
type CreateEvent struct {
	UserID       string
	ClientIP     string
	AnnotationID string
	GroupID      string
	TargetURI    string
	Shared       bool
	Success      bool
	ErrorMessage string
}

func (e CreateEvent) MessageID() string {
	return "create"
}

func (e CreateEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s created annotation %s on %s", e.UserID, e.AnnotationID, e.TargetURI)
	}
	msg := fmt.Sprintf("%s tried to create an annotation on %s", e.UserID, e.TargetURI)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e CreateEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e CreateEvent) Facility() int {
	return FacilityUser
}

func (e CreateEvent) StructuredData() map[string]map[string]string {
	visibility := "private"
	if e.Shared {
		visibility = "shared"
	}
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.UserID,
		},
		SDIDSubject: {
			"annotation": e.AnnotationID,
			"group":      e.GroupID,
			"uri":        e.TargetURI,
			"visibility": visibility,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "create",
			"result":    resultOf(e.Success),
		},
	}
	return sd
}

// UpdateEvent records an edit to an existing annotation.
type UpdateEvent struct {
	UserID       string
	ClientIP     string
	AnnotationID string
	Fields       []string
	Success      bool
	ErrorMessage string
}

func (e UpdateEvent) MessageID() string {
	return "update"
}

func (e UpdateEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s updated annotation %s", e.UserID, e.AnnotationID)
	}
	msg := fmt.Sprintf("%s tried to update annotation %s", e.UserID, e.AnnotationID)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e UpdateEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e UpdateEvent) Facility() int {
	return FacilityUser
}

func (e UpdateEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.UserID,
		},
		SDIDSubject: {
			"annotation": e.AnnotationID,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "update",
			"result":    resultOf(e.Success),
		},
	}
	if len(e.Fields) > 0 {
		sd[SDIDAction]["fields"] = strings.Join(e.Fields, ",")
	}
	return sd
}

// DeleteEvent records the soft deletion of an annotation.
type DeleteEvent struct {
	UserID       string
	ClientIP     string
	AnnotationID string
	Success      bool
	ErrorMessage string
}

func (e DeleteEvent) MessageID() string {
	return "delete"
}

func (e DeleteEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s deleted annotation %s", e.UserID, e.AnnotationID)
	}
	msg := fmt.Sprintf("%s tried to delete annotation %s", e.UserID, e.AnnotationID)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e DeleteEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e DeleteEvent) Facility() int {
	return FacilityUser
}

func (e DeleteEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.UserID,
		},
		SDIDSubject: {
			"annotation": e.AnnotationID,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "delete",
			"result":    resultOf(e.Success),
		},
	}
}

func resultOf(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
