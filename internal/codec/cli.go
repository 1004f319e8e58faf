package codec

import "github.com/rustyhorde/barto-sub000/internal/codec/wire"

// Cli is the barto-cli -> bartos request catalog (spec §4.C), grounded on
// original_source/libbarto/src/message/cli.rs with the Query/List/Failed
// request shapes the spec adds beyond that file's four variants.
type Cli struct {
	tag         cliTag
	infoJSON    bool
	updateName  string
	query       string
	listName    string
	listCmdName string
}

type cliTag uint32

const (
	cliInfo cliTag = iota
	cliUpdates
	cliCleanup
	cliClients
	cliQuery
	cliList
	cliFailed
)

func NewCliInfo(json bool) Cli           { return Cli{tag: cliInfo, infoJSON: json} }
func NewCliUpdates(name string) Cli      { return Cli{tag: cliUpdates, updateName: name} }
func NewCliCleanup() Cli                 { return Cli{tag: cliCleanup} }
func NewCliClients() Cli                 { return Cli{tag: cliClients} }
func NewCliQuery(query string) Cli       { return Cli{tag: cliQuery, query: query} }
func NewCliList(name, cmdName string) Cli { return Cli{tag: cliList, listName: name, listCmdName: cmdName} }
func NewCliFailed() Cli                  { return Cli{tag: cliFailed} }

func (c Cli) Tag() uint32               { return uint32(c.tag) }
func (c Cli) InfoJSON() bool            { return c.infoJSON }
func (c Cli) UpdatesName() string       { return c.updateName }
func (c Cli) Query() string             { return c.query }
func (c Cli) ListName() (name, cmd string) { return c.listName, c.listCmdName }

func (c Cli) Encode(w *wire.Writer) error {
	w.WriteU32(uint32(c.tag))
	switch c.tag {
	case cliInfo:
		w.WriteBool(c.infoJSON)
	case cliUpdates:
		w.WriteString(c.updateName)
	case cliCleanup, cliClients, cliFailed:
	case cliQuery:
		w.WriteString(c.query)
	case cliList:
		w.WriteString(c.listName)
		w.WriteString(c.listCmdName)
	default:
		return unexpectedVariant("Cli", 0, 6, uint32(c.tag))
	}
	return nil
}

func (c *Cli) Decode(r *wire.Reader) error {
	tag, err := r.ReadU32()
	if err != nil {
		return err
	}
	c.tag = cliTag(tag)
	switch c.tag {
	case cliInfo:
		c.infoJSON, err = r.ReadBool()
		return err
	case cliUpdates:
		c.updateName, err = r.ReadString()
		return err
	case cliCleanup, cliClients, cliFailed:
		return nil
	case cliQuery:
		c.query, err = r.ReadString()
		return err
	case cliList:
		if c.listName, err = r.ReadString(); err != nil {
			return err
		}
		c.listCmdName, err = r.ReadString()
		return err
	default:
		return unexpectedVariant("Cli", 0, 6, tag)
	}
}
