package ingestion

import (
	"errors"
	"strings"

	"github.com/jonathan/trade-hire/internal/schema"
)

// MinMeaningfulLength is the fewest characters of document text worth sending to the model.
// Image-only PDFs usually extract to a handful of stray glyphs.
const MinMeaningfulLength = 50

// Source is one raw input. Exactly one of Data or Text is used, chosen by Kind.
type Source struct {
	Kind      schema.SourceKind
	Data      []byte // document bytes
	MediaType string // declared media type of Data
	Text      string // fetched HTML or free text
	URL       string // where HTML came from, for error messages
}

// Normalizer converts sources to bounded plain text.
type Normalizer struct {
	Extractor TextExtractor
}

// NewNormalizer returns a Normalizer that reads documents with DocumentExtractor.
func NewNormalizer() *Normalizer {
	return &Normalizer{Extractor: DocumentExtractor{}}
}

// Normalize is a package-level shorthand using the default extractor.
func Normalize(src Source, maxLength int) (string, error) {
	return NewNormalizer().Normalize(src, maxLength)
}

// Normalize turns src into plain text no longer than maxLength characters.
// It fails with *UnreadableSourceError when no usable text can be produced.
func (n *Normalizer) Normalize(src Source, maxLength int) (string, error) {
	var (
		text string
		err  error
	)
	switch src.Kind {
	case schema.SourceDocument:
		text, err = n.document(src)
	case schema.SourceHTML:
		text, err = htmlSource(src)
	case schema.SourceText:
		text = strings.TrimSpace(src.Text)
		if text == "" {
			err = &UnreadableSourceError{Reason: ReasonEmpty, Message: "prompt is blank"}
		}
	default:
		err = &UnreadableSourceError{Reason: ReasonUnsupported, Message: "unknown source kind " + string(src.Kind)}
	}
	if err != nil {
		return "", err
	}
	return Truncate(text, maxLength), nil
}

func (n *Normalizer) document(src Source) (string, error) {
	if len(src.Data) == 0 {
		return "", &UnreadableSourceError{Reason: ReasonEmpty, Message: "document is empty"}
	}

	extractor := n.Extractor
	if extractor == nil {
		extractor = DocumentExtractor{}
	}

	raw, err := extractor.ExtractText(src.Data, src.MediaType)
	if err != nil {
		if errors.Is(err, ErrUnsupportedMedia) {
			return "", &UnreadableSourceError{Reason: ReasonUnsupported, Message: src.MediaType, Cause: err}
		}
		return "", &UnreadableSourceError{Reason: ReasonExtractFailed, Cause: err}
	}

	text := CleanText(raw)
	if count := len([]rune(text)); count < MinMeaningfulLength {
		if count == 0 {
			return "", &UnreadableSourceError{Reason: ReasonEmpty, Message: "document has no text"}
		}
		return "", &UnreadableSourceError{Reason: ReasonTooShort, Message: "document text is too short"}
	}
	return text, nil
}

func htmlSource(src Source) (string, error) {
	text, err := HTMLText(src.Text)
	if err != nil {
		return "", &UnreadableSourceError{Reason: ReasonExtractFailed, Message: src.URL, Cause: err}
	}
	if text == "" {
		return "", &UnreadableSourceError{Reason: ReasonEmpty, Message: src.URL}
	}
	return text, nil
}
