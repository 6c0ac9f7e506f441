package constants

// Import modes accepted by the bulk import pipeline.
const (
	ImportModeAdd       = "add"
	ImportModeUpdate    = "update"
	ImportModeAddUpdate = "add_update"
)

var ImportModes = []string{ImportModeAdd, ImportModeUpdate, ImportModeAddUpdate}

// Import history statuses.
const (
	ImportStatusSuccess = "success"
	ImportStatusPartial = "partial"
	ImportStatusFailed  = "failed"
)

// MobileDuplicateLimit is the maximum number of residents within one
// secretariat that may share a mobile number. A field edit pushing the count
// past this limit is rejected.
const MobileDuplicateLimit = 5

// LockDuplicateThreshold is the duplicate-count ceiling used by the locking
// predicate. It currently equals MobileDuplicateLimit but is a separate
// setting; the two are not required to stay coupled.
const LockDuplicateThreshold = 5

// Tracked field names, used by the change log and the field-edit API.
const (
	FieldMobileNumber = "mobileNumber"
	FieldHealthID     = "healthId"
)

// Placeholder sentinels carried over from the historical data set.
const (
	UnknownNamePrefix      = "UNKNOWN_NAME_"
	UnknownHouseholdPrefix = "HH_UNKNOWN_"
)

// This is set during compilation.
var Version = "latest"
