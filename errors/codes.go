package errors

// ErrorCode represents a unique identifier for error types.
// Codes are organized by category:
//   - E1xxx: Parse errors
//   - E2xxx: Compile errors
//   - E3xxx: Runtime errors
//   - E4xxx: Executable format errors
type ErrorCode string

const (
	// Parse errors (E1xxx)
	E1001 ErrorCode = "E1001" // Unexpected token
	E1002 ErrorCode = "E1002" // Unterminated string literal
	E1003 ErrorCode = "E1003" // Invalid syntax
	E1004 ErrorCode = "E1004" // Missing expression
	E1005 ErrorCode = "E1005" // Invalid assignment target
	E1006 ErrorCode = "E1006" // Expected identifier
	E1008 ErrorCode = "E1008" // Invalid number literal
	E1009 ErrorCode = "E1009" // Maximum nesting depth exceeded

	// Compile errors (E2xxx)
	E2001 ErrorCode = "E2001" // Undefined variable
	E2002 ErrorCode = "E2002" // Undefined function
	E2003 ErrorCode = "E2003" // Invalid break statement
	E2004 ErrorCode = "E2004" // Invalid skip statement
	E2005 ErrorCode = "E2005" // Invalid return statement
	E2006 ErrorCode = "E2006" // Duplicate parameter name
	E2007 ErrorCode = "E2007" // Too many registers
	E2008 ErrorCode = "E2008" // Too many constants
	E2011 ErrorCode = "E2011" // Redeclared name
	E2012 ErrorCode = "E2012" // Jump distance out of range
	E2013 ErrorCode = "E2013" // Type mismatch
	E2014 ErrorCode = "E2014" // Negative loop count
	E2015 ErrorCode = "E2015" // Assignment to constant
	E2016 ErrorCode = "E2016" // Wrong argument count
	E2017 ErrorCode = "E2017" // Unknown operator
	E2018 ErrorCode = "E2018" // Unknown type name
	E2019 ErrorCode = "E2019" // Internal consistency failure

	// Runtime errors (E3xxx)
	E3001 ErrorCode = "E3001" // Type error
	E3002 ErrorCode = "E3002" // Division by zero
	E3003 ErrorCode = "E3003" // Register out of bounds
	E3006 ErrorCode = "E3006" // Stack overflow
	E3007 ErrorCode = "E3007" // Invalid operation
	E3011 ErrorCode = "E3011" // Invalid opcode
	E3012 ErrorCode = "E3012" // Instruction limit exceeded
	E3013 ErrorCode = "E3013" // Execution halted

	// Format errors (E4xxx)
	E4001 ErrorCode = "E4001" // Bad magic
	E4002 ErrorCode = "E4002" // Version mismatch
	E4003 ErrorCode = "E4003" // Checksum mismatch
	E4004 ErrorCode = "E4004" // Truncated or malformed file
)

// codeDescriptions maps error codes to their short descriptions.
var codeDescriptions = map[ErrorCode]string{
	E1001: "unexpected token",
	E1002: "unterminated string literal",
	E1003: "invalid syntax",
	E1004: "missing expression",
	E1005: "invalid assignment target",
	E1006: "expected identifier",
	E1008: "invalid number literal",
	E1009: "maximum nesting depth exceeded",

	E2001: "undefined variable",
	E2002: "undefined function",
	E2003: "invalid break statement",
	E2004: "invalid skip statement",
	E2005: "invalid return statement",
	E2006: "duplicate parameter name",
	E2007: "too many registers",
	E2008: "too many constants",
	E2011: "name redeclared",
	E2012: "jump distance out of range",
	E2013: "type mismatch",
	E2014: "negative loop count",
	E2015: "assignment to constant",
	E2016: "wrong argument count",
	E2017: "unknown operator",
	E2018: "unknown type name",
	E2019: "internal consistency failure",

	E3001: "type error",
	E3002: "division by zero",
	E3003: "register out of bounds",
	E3006: "stack overflow",
	E3007: "invalid operation",
	E3011: "invalid opcode",
	E3012: "instruction limit exceeded",
	E3013: "execution halted",

	E4001: "bad magic",
	E4002: "version mismatch",
	E4003: "checksum mismatch",
	E4004: "truncated executable",
}

// Description returns the short description for an error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}

// String returns the error code as a string.
func (c ErrorCode) String() string {
	return string(c)
}

// Category returns the error category based on the code prefix.
func (c ErrorCode) Category() string {
	if len(c) < 2 {
		return "unknown"
	}
	switch c[1] {
	case '1':
		return "parse"
	case '2':
		return "compile"
	case '3':
		return "runtime"
	case '4':
		return "format"
	default:
		return "unknown"
	}
}
