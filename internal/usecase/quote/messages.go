package quote

// User-facing messages for quote failures.
const (
	MsgSymbolRequired = "Please enter a stock symbol."
	MsgSymbolInvalid  = "Invalid stock symbol. Use e.g. AAPL."
	MsgInvalidRequest = "Invalid API call. Check the stock symbol or the API key."
	MsgRateLimited    = "API rate limit exceeded. Wait a moment and try again."

	notFoundPrefix = "Stock not found: "
	unknownError   = "unknown error"
)
