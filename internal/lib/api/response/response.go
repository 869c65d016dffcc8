package response

type Response struct {
	Success bool        `json:"success" validate:"required"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func Ok(data interface{}) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

func Error(message string) Response {
	return Response{
		Success: false,
		Message: message,
	}
}

// Fail reports a rejected operation together with the current state, so the
// client can redraw without a second request.
func Fail(message string, data interface{}) Response {
	return Response{
		Success: false,
		Data:    data,
		Message: message,
	}
}
