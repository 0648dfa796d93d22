package extract

// callQuery captures every method call on a member expression together with
// its argument list. Method names and argument shapes are filtered in Go so
// the patterns stay configurable.
const callQuery = `
	(call_expression
		function: (member_expression
			property: (property_identifier) @method)
		arguments: (arguments) @args) @call
`

var Queries = map[string]string{
	"javascript": callQuery,
	"typescript": callQuery,
	"tsx":        callQuery,
}
