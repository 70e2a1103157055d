package dnsmessage

import "github.com/dnsscience/resolverd/internal/bytebuffer"

// classIN is the only QCLASS this resolver emits. Class is always IN (1)
// on encode; any class is ignored on decode.
const classIN = 1

// Question is one entry of the question section.
type Question struct {
	Name string
	Type QueryType
}

// Decode reads NAME/QTYPE/QCLASS. QCLASS is read and discarded.
func (q *Question) Decode(buf *bytebuffer.ByteBuffer) error {
	name, err := buf.ReadQName()
	if err != nil {
		return err
	}
	q.Name = name

	t, err := buf.ReadU16()
	if err != nil {
		return err
	}
	q.Type = QueryTypeFromNum(t)

	if _, err := buf.ReadU16(); err != nil { // QCLASS, ignored
		return err
	}
	return nil
}

// Encode writes NAME/QTYPE/QCLASS=IN.
func (q *Question) Encode(buf *bytebuffer.ByteBuffer) error {
	if err := buf.WriteQName(q.Name); err != nil {
		return err
	}
	if err := buf.WriteU16(q.Type.ToNum()); err != nil {
		return err
	}
	return buf.WriteU16(classIN)
}
