package apierror

import "net/http"

// Kind is one problem type of the hydromate API: its urn:hydromate:error:*
// URI, a short title and the HTTP status it is served with.
type Kind struct {
	Type   string
	Title  string
	Status int
}

// Problem type URIs, used as the "type" field of a response
const (
	TypeValidation         = "urn:hydromate:error:validation"
	TypeNotFound           = "urn:hydromate:error:not_found"
	TypeInternal           = "urn:hydromate:error:internal"
	TypeInvalidUUID        = "urn:hydromate:error:invalid_uuid"
	TypeFutureTimestamp    = "urn:hydromate:error:future_timestamp"
	TypeInvalidDayKey      = "urn:hydromate:error:invalid_day_key"
	TypeBadRequest         = "urn:hydromate:error:bad_request"
	TypeStorageUnavailable = "urn:hydromate:error:storage_unavailable"
	TypeWidgetQueue        = "urn:hydromate:error:widget_queue"
)

var (
	KindValidation         = Kind{TypeValidation, "Validation Error", http.StatusBadRequest}
	KindNotFound           = Kind{TypeNotFound, "Resource Not Found", http.StatusNotFound}
	KindInternal           = Kind{TypeInternal, "Internal Server Error", http.StatusInternalServerError}
	KindInvalidUUID        = Kind{TypeInvalidUUID, "Invalid UUID Format", http.StatusBadRequest}
	KindFutureTimestamp    = Kind{TypeFutureTimestamp, "Future Timestamp Not Allowed", http.StatusBadRequest}
	KindInvalidDayKey      = Kind{TypeInvalidDayKey, "Invalid Day", http.StatusBadRequest}
	KindBadRequest         = Kind{TypeBadRequest, "Bad Request", http.StatusBadRequest}
	KindStorageUnavailable = Kind{TypeStorageUnavailable, "Storage Unavailable", http.StatusServiceUnavailable}
	KindWidgetQueue        = Kind{TypeWidgetQueue, "Widget Queue Unavailable", http.StatusServiceUnavailable}
)
