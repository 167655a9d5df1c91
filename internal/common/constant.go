package common

// named display zones must resolve on hosts without a zoneinfo database
import _ "time/tzdata"

// AccessTokenCookieName is the cookie that carries the signed access token
// between the browser and the server.
const AccessTokenCookieName = "access_token"

// DefaultDisplayTimezone is used to render session timestamps when no zone is
// configured. Storage is always UTC.
const DefaultDisplayTimezone = "Asia/Kolkata"
