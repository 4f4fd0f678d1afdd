package domain

// DownloadRecord maps a media title to a fully downloaded local file. A
// record exists only after a transfer completed successfully; Location is the
// unique key for lookups and deletion.
type DownloadRecord struct {
	Title    string `json:"title"`
	Location string `json:"uri"`
}
