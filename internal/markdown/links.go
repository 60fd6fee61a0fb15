package markdown

// LinkKind classifies how a link was written.
type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
)

// Link is a link-like construct found in a Markdown body. Line and Column
// are 1-based offsets into the body; zero when unknown.
type Link struct {
	Kind        LinkKind
	Destination string
	Line        int
	Column      int
}
