package edhrec

// CommanderPage is the JSON document served for a commander, optionally
// narrowed to a budget.
type CommanderPage struct {
	Header      string        `json:"header"`
	Description string        `json:"description"`
	Container   *Container    `json:"container"`
	Panels      *Panels       `json:"panels"`
	AvgPrice    *float64      `json:"avg_price"`
	NumDecksAvg int           `json:"num_decks_avg"`
	Similar     []*SimilarRef `json:"similar"`
}

// Container holds the main data structure.
type Container struct {
	JSONDict    *JSONDict `json:"json_dict"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

// JSONDict contains card lists and the commander card itself.
type JSONDict struct {
	CardLists []*CardList `json:"cardlists"`
	Card      *CardInfo   `json:"card"`
}

// CardList is a categorized list of cards, such as "highsynergycards".
type CardList struct {
	Tag       string      `json:"tag"`
	Header    string      `json:"header"`
	CardViews []*CardView `json:"cardviews"`
}

// CardView is one card's statistics on a page.
type CardView struct {
	Name           string                  `json:"name"`
	Sanitized      string                  `json:"sanitized"`
	URL            string                  `json:"url"`
	Synergy        float64                 `json:"synergy"`
	Inclusion      int                     `json:"inclusion"`
	NumDecks       int                     `json:"num_decks"`
	PotentialDecks int                     `json:"potential_decks"`
	Prices         map[string]*VendorPrice `json:"prices"`
}

// VendorPrice is one vendor's listing.
type VendorPrice struct {
	Price float64 `json:"price"`
}

// CardInfo describes the commander card. ColorIdentity is nil when the
// field is absent and empty for a colorless commander.
type CardInfo struct {
	Name          string                  `json:"name"`
	Sanitized     string                  `json:"sanitized"`
	CMC           *float64                `json:"cmc"`
	ColorIdentity []string                `json:"color_identity"`
	Salt          *float64                `json:"salt"`
	NumDecks      int                     `json:"num_decks"`
	Rank          *int                    `json:"rank"`
	Prices        map[string]*VendorPrice `json:"prices"`
}

// Panels holds the sidebar, including theme links.
type Panels struct {
	TagLinks []*TagLink `json:"taglinks"`
}

// TagLink is a theme with the number of decks tagged with it.
type TagLink struct {
	Value string `json:"value"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// SimilarRef is a related commander.
type SimilarRef struct {
	Name      string `json:"name"`
	Sanitized string `json:"sanitized"`
}

// ListPage is the JSON document listing commanders by popularity.
type ListPage struct {
	Header    string     `json:"header"`
	Container *Container `json:"container"`
}
