package bot

// Telegram rejects longer message texts.
const maxMessageLen = 4096

const (
	ctxUser    = "user"
	ctxContext = "context"
)

const (
	msgDefaultError   = "unknown_error"
	msgStart          = "start"
	msgNotLinked      = "not_linked"
	msgEmptyPortfolio = "empty_portfolio"
	msgRefreshed      = "refreshed"
	msgPortfolioTitle = "portfolio_title"
	msgSummary        = "portfolio_summary"
	msgHolding        = "portfolio_holding"
	msgDigestDaily    = "digest_title_daily"
	msgDigestWeekly   = "digest_title_weekly"
)

const (
	btnPortfolio = "button_portfolio"
	btnRefresh   = "button_refresh"
)
