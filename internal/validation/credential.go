package validation

// ValidateCredential checks an exchange credential upsert.
func ValidateCredential(exchange, apiKey, apiSecret string) error {
	fields := map[string]string{}

	if exchange == "" {
		fields["exchange"] = "exchange is required"
	}
	if apiKey == "" {
		fields["apiKey"] = "API key is required"
	}
	if apiSecret == "" {
		fields["apiSecret"] = "API secret is required"
	}

	if len(fields) > 0 {
		return &Error{Fields: fields}
	}
	return nil
}
