package cj

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"
)

// Request headers CJ expects on authenticated business calls.
const (
	headerAccessToken = "CJ-Access-Token"
	headerTimestamp   = "CJ-Access-Timestamp"
	headerSign        = "CJ-Access-Sign"
	headerClientID    = "CJ-Client-Id"

	clientID  = "cj-bridge"
	userAgent = "CJ-Bridge/1.0"
)

// Sign computes the request signature: lowercase hex of
// sha256(userID + timestamp + apiKey + apiSecret).
func Sign(userID, timestamp, apiKey, apiSecret string) string {
	sum := sha256.Sum256([]byte(userID + timestamp + apiKey + apiSecret))
	return hex.EncodeToString(sum[:])
}

// signRequest attaches the access token, timestamp and signature headers.
func signRequest(req *http.Request, creds Credentials, accessToken string, now time.Time) {
	ts := strconv.FormatInt(now.Unix(), 10)
	req.Header.Set(headerAccessToken, accessToken)
	req.Header.Set(headerTimestamp, ts)
	req.Header.Set(headerSign, Sign(creds.UserID, ts, creds.APIKey, creds.APISecret))
	req.Header.Set(headerClientID, clientID)
}
