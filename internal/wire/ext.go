package wire

import (
	"encoding/binary"

	"github.com/hervehildenbrand/tracecore/pkg/probe"
)

// RFC 4884 / RFC 4950 constants. extVersion is the top nibble of the
// extension header's first byte; it must read 2.
const (
	extHeaderLen        = 4
	extObjHeaderLen      = 4
	extMinDatagramOctets = 128
	extVersion           = 2
	mplsLabelEntryLen    = 4
)

// ParseExtensions looks for an RFC 4884 extension structure following the
// embedded original datagram in an ICMP TimeExceeded or
// DestinationUnreachable message, per spec §4.1:
//
//  1. Detection prefers the ICMP header's own length sub-field (rest[1],
//     in 4-octet units) when it is populated and consistent with the
//     available data; otherwise it falls back to the widely-used "body is
//     at least 128 bytes" heuristic; otherwise there is no extension.
//  2. The 4-byte extension header's checksum is verified; a mismatch
//     means no extensions were found, not a parse failure — the outer
//     packet still parses fine.
//  3. Only a structurally malformed object stream (an object whose
//     declared length is shorter than its own 4-byte header or runs past
//     the buffer) is reported as an error; the
//     caller drops the entire enclosing ICMP response when that happens.
//
// A nil, nil result means "no extensions present", which is the common
// case and not an error.
func ParseExtensions(rest [4]byte, afterHeader []byte) (*probe.Extensions, error) {
	start, ok := extensionStart(rest, afterHeader)
	if !ok {
		return nil, nil
	}
	if start+extHeaderLen > len(afterHeader) {
		return nil, nil
	}

	hdr := afterHeader[start : start+extHeaderLen]
	if hdr[0]>>4 != extVersion {
		return nil, nil
	}
	if !verifyExtensionChecksum(hdr, afterHeader[start+extHeaderLen:]) {
		return nil, nil
	}

	return parseExtensionObjects(afterHeader[start+extHeaderLen:])
}

// extensionStart decides where, if anywhere, extension data begins within
// afterHeader.
func extensionStart(rest [4]byte, afterHeader []byte) (int, bool) {
	if lengthOctets := int(rest[1]) * 4; lengthOctets >= extMinDatagramOctets && lengthOctets <= len(afterHeader) {
		return lengthOctets, true
	}
	if len(afterHeader) >= extMinDatagramOctets {
		return extMinDatagramOctets, true
	}
	return 0, false
}

func verifyExtensionChecksum(hdr []byte, objects []byte) bool {
	stored := binary.BigEndian.Uint16(hdr[2:4])
	scratch := make([]byte, len(hdr)+len(objects))
	copy(scratch, hdr)
	copy(scratch[len(hdr):], objects)
	scratch[2], scratch[3] = 0, 0
	return InternetChecksum(scratch) == stored
}

func parseExtensionObjects(buf []byte) (*probe.Extensions, error) {
	var objs []probe.ExtensionObject
	pos := 0
	for pos+extObjHeaderLen <= len(buf) {
		objLen := int(binary.BigEndian.Uint16(buf[pos : pos+2]))
		classNum := buf[pos+2]
		cType := buf[pos+3]
		if objLen < extObjHeaderLen || pos+objLen > len(buf) {
			return nil, probe.NewExtensionParseError("object length out of bounds")
		}
		objs = append(objs, probe.ExtensionObject{
			ClassNum: classNum,
			CType:    cType,
			Body:     buf[pos+extObjHeaderLen : pos+objLen],
		})
		pos += objLen
	}

	ext := &probe.Extensions{Objects: objs}
	for _, o := range objs {
		if o.ClassNum == probe.MPLSClassNum {
			ext.MPLSLabelStack = decodeMPLSLabels(o.Body)
			break
		}
	}
	return ext, nil
}

// decodeMPLSLabels decodes a run of 4-byte MPLS label stack entries per
// RFC 4950: label(20) | exp(3) | bottom-of-stack(1) | ttl(8).
func decodeMPLSLabels(body []byte) []probe.MPLSLabel {
	var labels []probe.MPLSLabel
	for i := 0; i+mplsLabelEntryLen <= len(body); i += mplsLabelEntryLen {
		v := binary.BigEndian.Uint32(body[i : i+mplsLabelEntryLen])
		labels = append(labels, probe.MPLSLabel{
			Label: v >> 12,
			Exp:   uint8((v >> 9) & 0x7),
			BoS:   (v>>8)&0x1 == 1,
			TTL:   uint8(v & 0xff),
		})
	}
	return labels
}
