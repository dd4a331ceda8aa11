package writer

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/datame/internal/errs"
	"github.com/koustreak/datame/internal/value"
)

// YAML writes a multi-document stream, one mapping per tuple, separated by
// "---".
type YAML struct {
	Nested
	buf *bufio.Writer
	enc *yaml.Encoder
}

// NewYAML returns a YAML writer.
func NewYAML(out io.Writer) *YAML {
	buf := bufio.NewWriter(out)
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	return &YAML{buf: buf, enc: enc}
}

func (y *YAML) String() string { return string(FormatYAML) }

func (y *YAML) WriteTuple(_ context.Context, t *value.Tuple) error {
	node, err := tupleNode(t)
	if err != nil {
		return err
	}
	if err := y.enc.Encode(node); err != nil {
		return ioError("yaml", "encode document", err)
	}
	return nil
}

// Flush ends the stream. The writer must not be used afterwards.
func (y *YAML) Flush(_ context.Context) error {
	if err := y.enc.Close(); err != nil {
		return ioError("yaml", "close encoder", err)
	}
	if err := y.buf.Flush(); err != nil {
		return ioError("yaml", "flush", err)
	}
	return nil
}

// tupleNode converts t into an ordered YAML mapping node.
func tupleNode(t *value.Tuple) (*yaml.Node, error) {
	n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if t == nil {
		return n, nil
	}
	n.Content = make([]*yaml.Node, 0, 2*t.Len())
	for name, d := range t.All() {
		v, err := dataNode(name, d)
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, scalar("!!str", name), v)
	}
	return n, nil
}

func dataNode(name string, d value.Data) (*yaml.Node, error) {
	switch v := d.(type) {
	case value.Int:
		return scalar("!!int", strconv.FormatInt(int64(v), 10)), nil
	case value.Float:
		return scalar("!!float", formatFloat(float64(v))), nil
	case value.String:
		return scalar("!!str", string(v)), nil
	case value.List:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: make([]*yaml.Node, 0, len(v))}
		for _, e := range v {
			c, err := dataNode(name, e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, c)
		}
		return n, nil
	case value.Record:
		return tupleNode(v.Tuple)
	}
	return nil, errs.Newf(errs.ErrKindInvariant, "yaml: unknown value %T for field %q", d, name)
}

func scalar(tag, v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v}
}

// formatFloat keeps a decimal point so the value resolves back to a float.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	switch {
	case s == "NaN":
		return ".nan"
	case s == "+Inf":
		return ".inf"
	case s == "-Inf":
		return "-.inf"
	case !strings.ContainsAny(s, ".e"):
		return s + ".0"
	}
	return s
}
