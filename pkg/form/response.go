package form

import (
	"fmt"
	"net/http"
)

// ============================================================
// REQUEST CONTEXT
// ============================================================

// AfterSaveMode is the caller-requested post-save navigation.
type AfterSaveMode int

const (
	AfterSaveDefault AfterSaveMode = iota
	AfterSaveContinueEditing
	AfterSaveContinueCreating
	AfterSaveView
	AfterSaveExit
)

// RequestContext carries the per-request facts the response policy needs.
// The HTTP layer fills it in; the form never reads headers or URLs itself.
type RequestContext struct {
	// AjaxNonPartial marks an ajax request without partial page reload;
	// such callers always get a structured JSON response.
	AjaxNonPartial bool

	AfterSave AfterSaveMode

	// CustomURL redirects there after save when set.
	CustomURL string

	// PreviousURL is the remembered list/filter URL to return to.
	PreviousURL string

	// BatchEdit marks a multi-id batch edit in progress; the caller sets it
	// explicitly instead of the form sniffing the previous URL.
	BatchEdit bool
}

// ============================================================
// RESPONSE
// ============================================================

// ResponseKind tells the HTTP layer how to deliver the outcome.
type ResponseKind int

const (
	// ResponseRedirect asks for a redirect to URL, with Validation carried
	// as flash errors when non-empty.
	ResponseRedirect ResponseKind = iota

	// ResponseMessage is a plain success/failure message, no navigation.
	ResponseMessage

	// ResponseJSON is a structured payload for ajax callers.
	ResponseJSON
)

// Response is the outcome descriptor of a store/update/destroy call.
type Response struct {
	Kind       ResponseKind        `json:"-"`
	URL        string              `json:"url,omitempty"`
	Status     bool                `json:"status"`
	Code       int                 `json:"-"`
	Message    string              `json:"message,omitempty"`
	Validation map[string][]string `json:"validation,omitempty"`
	Display    map[string]string   `json:"display,omitempty"`
}

// DecideResponse is the pure post-save decision table. resource is the
// resource index path, pk the saved record's key.
func DecideResponse(req RequestContext, resource string, pk interface{}, display map[string]string) *Response {
	if req.AjaxNonPartial {
		return &Response{
			Kind:    ResponseJSON,
			Status:  true,
			Code:    http.StatusOK,
			Message: "save succeeded",
			Display: display,
		}
	}

	switch {
	case req.CustomURL != "":
		return redirect(req.CustomURL)
	case req.BatchEdit:
		// A batch edit has no single record to continue editing or viewing,
		// so after-save modes are ignored; it returns to the remembered list.
		if req.PreviousURL != "" {
			return redirect(req.PreviousURL)
		}
		return redirect(resource)
	case req.AfterSave == AfterSaveContinueEditing:
		return redirect(fmt.Sprintf("%s/%v/edit", resource, pk))
	case req.AfterSave == AfterSaveContinueCreating:
		return redirect(resource + "/create")
	case req.AfterSave == AfterSaveView:
		return redirect(fmt.Sprintf("%s/%v", resource, pk))
	case req.AfterSave == AfterSaveExit:
		return &Response{Kind: ResponseMessage, Status: true, Code: http.StatusOK, Message: "save succeeded"}
	case req.PreviousURL != "":
		return redirect(req.PreviousURL)
	default:
		return redirect(resource)
	}
}

func redirect(url string) *Response {
	return &Response{Kind: ResponseRedirect, Status: true, Code: http.StatusFound, URL: url}
}

// validationFailed maps an aggregated validation failure to the caller's
// response shape: JSON with per-field messages for ajax-without-partial
// callers, a redirect-back-with-errors signal for everyone else.
func validationFailed(req RequestContext, errs *ValidationErrors) *Response {
	if req.AjaxNonPartial {
		return &Response{
			Kind:       ResponseJSON,
			Status:     false,
			Code:       http.StatusUnprocessableEntity,
			Message:    "validation failed",
			Validation: errs.Messages(),
		}
	}
	return &Response{
		Kind:       ResponseRedirect,
		Status:     false,
		Code:       http.StatusFound,
		URL:        req.PreviousURL,
		Validation: errs.Messages(),
	}
}
