package wikipedia

// searchResponse is the shape of the MediaWiki action API search response.
type searchResponse struct {
	Query struct {
		Search []searchHit `json:"search"`
	} `json:"query"`
}

// searchHit is one entry in the search result list.
type searchHit struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// summaryResponse is the shape of the REST page summary response.
type summaryResponse struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
}
