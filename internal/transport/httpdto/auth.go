package httpdto

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	User UserShort `json:"user"`
}

type RequestOTPRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RequestOTPResponse struct {
	Msg string `json:"msg"`
	// Mail delivery is out of scope; the code is surfaced for clients the
	// same way the original backend did while its mailer was disabled.
	DebugOTP string `json:"debugOtp,omitempty"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type VerifyOTPResponse struct {
	Msg   string    `json:"msg"`
	Token string    `json:"token"`
	User  UserShort `json:"user"`
}
