package config

// SecretStringValue must be exported - used in tests.
const SecretStringValue = "<secret>"

// SecretString holds credentials sent to remote servers (Authorization
// header value). It is never revealed when configuration is dumped or
// logged, use Reveal to get actual value.
type SecretString string

// Reveal returns actual value.
func (s SecretString) Reveal() string {
	return string(s)
}

// String makes sure value does not leak into logs through zap.Stringer or
// fmt.
func (s SecretString) String() string {
	if len(s) == 0 {
		return ""
	}
	return SecretStringValue
}

// MarshalJSON marshals SecretString to JSON making sure that actual value is not visible.
func (s SecretString) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return []byte("\"" + SecretStringValue + "\""), nil
}

// MarshalYAML marshals SecretString to YAML making sure that actual value is not visible.
func (s SecretString) MarshalYAML() (any, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return SecretStringValue, nil
}
