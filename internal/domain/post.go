package domain

// Post represents one social media post record.
//
// Timestamp is opaque text in DD/MM/YYYY HH:MM form; it is never parsed or
// validated as a calendar date. Author is a free-text display name and is
// independent of the owning account's real name.
type Post struct {
	ID        int64  `db:"id"`        // Unique identifier, assigned by the store
	OwnerID   int64  `db:"owner_id"`  // Account that entered the post
	Content   string `db:"content"`   // Free text, must not contain a comma
	Author    string `db:"author"`    // Display name
	Likes     int64  `db:"likes"`     // Never negative
	Shares    int64  `db:"shares"`    // Never negative
	Timestamp string `db:"timestamp"` // Opaque date-time text
}

// SharesBucket is one band of the shares distribution histogram.
// A bucket covers share counts in [Low, Low+Width).
type SharesBucket struct {
	Low   int64 // Inclusive lower bound of the band
	Count int64 // Number of posts falling in the band
}
