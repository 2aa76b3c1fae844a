package sqlite

// JSON record structures that mirror the JSONL file format. Column names in
// SQLite match the JSON field names so the loader can copy records directly.

// partyJSON represents a party in parties.jsonl. Coalition members are
// stored by party key within the same context.
type partyJSON struct {
	Context   string   `json:"context"`
	PartyKey  string   `json:"party_key"`
	Name      string   `json:"name"`
	FullName  string   `json:"full_name"`
	ShortName string   `json:"short_name"`
	Aliases   []string `json:"aliases"`
	Members   []string `json:"members"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

// entryJSON is one raw label/value pair of a poll.
type entryJSON struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// pollJSON represents a poll in polls.jsonl.
type pollJSON struct {
	PollID        string      `json:"poll_id"`
	Series        string      `json:"series"`
	Seq           int64       `json:"seq"`
	Date          string      `json:"date"`
	Pollster      *string     `json:"pollster"`
	MarginOfError *float64    `json:"margin_of_error"`
	Entries       []entryJSON `json:"entries"`
	CreatedAt     string      `json:"created_at"`
}
