package validation

// IsValidIdentifierChar checks if a character is valid for identifiers
// (alphanumeric, hyphen, or underscore).
//
// This function is used to validate pipeline names, logger names, and other
// user-provided identifiers in GoTrail. It enforces a consistent naming
// convention across the application.
//
// Valid characters:
//   - Lowercase letters: a-z
//   - Uppercase letters: A-Z
//   - Digits: 0-9
//   - Hyphen: -
//   - Underscore: _
func IsValidIdentifierChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '-' || ch == '_'
}

// ValidName checks if a string is a valid GoTrail identifier: non-empty
// and built entirely from identifier characters.
func ValidName(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		if !IsValidIdentifierChar(ch) {
			return false
		}
	}
	return true
}

// ValidSQLIdentifier checks if a string is safe to interpolate as a quoted
// SQL table or column name: it must start with a letter or underscore and
// contain only letters, digits, and underscores.
//
// SQLite sinks build CREATE TABLE and INSERT statements from log headers,
// so every header column passes through this check first.
func ValidSQLIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, ch := range s {
		isLetter := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
		isDigit := ch >= '0' && ch <= '9'
		if i == 0 {
			if !isLetter && ch != '_' {
				return false
			}
			continue
		}
		if !isLetter && !isDigit && ch != '_' {
			return false
		}
	}
	return true
}
