package pesapal

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/dghubble/oauth1"
	"github.com/google/uuid"
)

const (
	oauthVersion         = "1.0"
	oauthSignatureMethod = "HMAC-SHA1"
)

// requestSigner signs two-legged OAuth 1.0a GET requests with HMAC-SHA1.
// PesaPal expects every oauth parameter in the query string, the consumer
// has no token, so the signing key is "<encoded secret>&". HMACSigner encodes
// the secret itself and must be given the raw value.
type requestSigner struct {
	consumerKey string
	signer      *oauth1.HMACSigner
	nonce       func() string
	timestamp   func() int64
}

func newRequestSigner(consumerKey, consumerSecret string, timestamp func() int64) *requestSigner {
	return &requestSigner{
		consumerKey: consumerKey,
		signer:      &oauth1.HMACSigner{ConsumerSecret: consumerSecret},
		nonce:       func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
		timestamp:   timestamp,
	}
}

// signedURL returns endpoint with params and the oauth parameters, including
// oauth_signature, encoded into the query string
func (s *requestSigner) signedURL(endpoint string, params map[string]string) (string, error) {
	target, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}

	all := make(map[string]string, len(params)+6)
	for key, values := range target.Query() {
		if len(values) > 0 {
			all[key] = values[0]
		}
	}
	for key, value := range params {
		all[key] = value
	}
	all["oauth_consumer_key"] = s.consumerKey
	all["oauth_nonce"] = s.nonce()
	all["oauth_signature_method"] = oauthSignatureMethod
	all["oauth_timestamp"] = strconv.FormatInt(s.timestamp(), 10)
	all["oauth_version"] = oauthVersion

	encoded := encodePairs(all)
	signature, err := s.signer.Sign("", baseString("GET", target, encoded))
	if err != nil {
		return "", err
	}
	encoded = append(encoded, oauth1.PercentEncode("oauth_signature")+"="+oauth1.PercentEncode(signature))
	sort.Strings(encoded)

	target.RawQuery = strings.Join(encoded, "&")
	target.Fragment = ""
	return target.String(), nil
}

// encodePairs percent encodes every key and value and returns the pairs sorted
func encodePairs(params map[string]string) []string {
	pairs := make([]string, 0, len(params))
	for key, value := range params {
		pairs = append(pairs, oauth1.PercentEncode(key)+"="+oauth1.PercentEncode(value))
	}
	sort.Strings(pairs)
	return pairs
}

// baseString builds the signature base string of RFC 5849 section 3.4.1
func baseString(method string, target *url.URL, sortedPairs []string) string {
	return strings.Join([]string{
		strings.ToUpper(method),
		oauth1.PercentEncode(normalizedURL(target)),
		oauth1.PercentEncode(strings.Join(sortedPairs, "&")),
	}, "&")
}

// normalizedURL lower cases scheme and host and drops default ports and the query
func normalizedURL(target *url.URL) string {
	scheme := strings.ToLower(target.Scheme)
	host := strings.ToLower(target.Hostname())
	if port := target.Port(); port != "" {
		if !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
			host += ":" + port
		}
	}
	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path
}
