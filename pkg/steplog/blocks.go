package steplog

// Group is one terminus category with the residue locators labeled with it.
type Group struct {
	Category string   `json:"category" yaml:"category" toml:"category"`
	Items    []string `json:"items" yaml:"items" toml:"items"`
}

// Block is the cleaned content of one processing block. Only the termini
// block carries Groups once post-processed; all others use Lines.
type Block struct {
	Index   int      `json:"index" yaml:"index" toml:"index"`
	Heading string   `json:"heading" yaml:"heading" toml:"heading"`
	Lines   []string `json:"lines,omitempty" yaml:"lines,omitempty" toml:"lines,omitempty"`
	Groups  []Group  `json:"groups,omitempty" yaml:"groups,omitempty" toml:"groups,omitempty"`
}

// Empty reports whether the block ran without anything worth reporting.
func (b *Block) Empty() bool {
	return len(b.Lines) == 0 && len(b.Groups) == 0
}

// Blocks holds the blocks found in a log in ascending index order. A block
// whose start marker was not found is absent, never present and empty.
type Blocks []*Block

// Get returns the block reported under heading, or nil.
func (bs Blocks) Get(heading string) *Block {
	for _, b := range bs {
		if b.Heading == heading {
			return b
		}
	}
	return nil
}

func (bs Blocks) Has(heading string) bool {
	return bs.Get(heading) != nil
}

func (bs Blocks) Headings() []string {
	headings := make([]string, len(bs))
	for i, b := range bs {
		headings[i] = b.Heading
	}
	return headings
}

// add stores lines under heading, appending when the heading is already used
// (several unknown blocks all report as HeadingOther).
func (bs Blocks) add(index int, heading string, lines []string) Blocks {
	if b := bs.Get(heading); b != nil {
		b.Lines = append(b.Lines, lines...)
		return bs
	}
	return append(bs, &Block{Index: index, Heading: heading, Lines: lines})
}

// clone returns a deep copy so post-processing never edits an Extraction.
func (bs Blocks) clone() Blocks {
	out := make(Blocks, len(bs))
	for i, b := range bs {
		c := &Block{Index: b.Index, Heading: b.Heading}
		if b.Lines != nil {
			c.Lines = append([]string{}, b.Lines...)
		}
		for _, g := range b.Groups {
			c.Groups = append(c.Groups, Group{Category: g.Category, Items: append([]string{}, g.Items...)})
		}
		out[i] = c
	}
	return out
}
