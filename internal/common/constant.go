package common

// AccessTokenHeaderName is an alternative request header carrying the raw
// access token for clients that cannot set Authorization.
const AccessTokenHeaderName = "access_token"

// BearerScheme is the Authorization scheme expected by the access gate.
const BearerScheme = "Bearer"
