package manifest

import "errors"

var (
	// ErrFetchFailed reports a transport failure or a non-2xx response.
	ErrFetchFailed = errors.New("manifest fetch failed")
	// ErrParseFailed reports a body that is not a well-formed manifest.
	ErrParseFailed = errors.New("manifest parse failed")
	// ErrScopeViolation reports a start URL or scope the document may not claim.
	ErrScopeViolation = errors.New("manifest scope violation")
	// ErrNoManifestLink reports a document without <link rel="manifest">.
	ErrNoManifestLink = errors.New("document does not link a manifest")
)
