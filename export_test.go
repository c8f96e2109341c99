package model

// Test-only exports for internal functions.
var (
	CoerceScalar = coerceScalar
	Observe      = observe
	Describe     = describe
	KeyString    = keyString
	Length       = length
	CompareBound = compareBound
	FormatNumber = formatNumber
	TagOptions   = tagOptions
	TagContains  = tagContains
	FieldName    = fieldName
)
