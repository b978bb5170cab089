package soap

// Envelope is the uniform JSON body the relay answers with: AFIP's parsed
// reply under "response" on success, the error taxonomy under "error"
// otherwise. HTTP status stays 200 either way; callers branch on "status".
type Envelope struct {
	Status   string     `json:"status"`
	Response any        `json:"response,omitempty"`
	Error    *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	ErrorType string `json:"error_type"`
	Detail    string `json:"detail"`
	Method    string `json:"method"`
}

func Success(response any) Envelope {
	return Envelope{Status: "success", Response: response}
}

func Failure(method string, err error) Envelope {
	ce := asCallError(err, method)
	return Envelope{
		Status: "error",
		Error: &ErrorBody{
			ErrorType: ce.Type,
			Detail:    ce.Detail,
			Method:    ce.Method,
		},
	}
}

// Resolve folds a (result, err) pair into the envelope in one step.
func Resolve(method string, response any, err error) Envelope {
	if err != nil {
		return Failure(method, err)
	}
	return Success(response)
}
