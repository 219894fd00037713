package loam

// NoteMetadata is the frontmatter a vault note may carry.
// Only listing reads it; writes keep the note's frontmatter untouched.
type NoteMetadata struct {
	Title string   `json:"title" mapstructure:"title"`
	Tags  []string `json:"tags" mapstructure:"tags"`
}
