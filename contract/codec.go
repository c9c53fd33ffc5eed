package contract

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/CosmWasm/tinyjson/jlexer"
	"github.com/CosmWasm/tinyjson/jwriter"
	"github.com/pkg/errors"

	"sputnik_dao/sdk"
)

// Versions written in front of every entity blob. Unknown versions are refused.
const (
	proposalVersionCurrent byte = 1
	bountyVersionCurrent   byte = 1
)

var errUnexpectedEOF = errors.New("unexpected EOF")

type binWriter struct {
	buf bytes.Buffer
}

// newWriter spins up a fresh writer so we dont leak old bytes between encodes.
func newWriter() *binWriter { return &binWriter{} }

// bytes returns the accumulated buffer.
func (w *binWriter) bytes() []byte { return w.buf.Bytes() }

// writeBool squashes bools into a single byte flag for deterministic payloads.
func (w *binWriter) writeBool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

// writeUint64 writes big endian numbers so tooling can read them without guessing.
func (w *binWriter) writeUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

// writeVarUint uses varints to keep counts and lens compact.
func (w *binWriter) writeVarUint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	w.buf.Write(tmp[:n])
}

// writeBytes prefixes the length, same as strings.
func (w *binWriter) writeBytes(b []byte) {
	w.writeVarUint(uint64(len(b)))
	w.buf.Write(b)
}

// writeString prefixes its length then dumps UTF-8 directly.
func (w *binWriter) writeString(s string) {
	w.writeVarUint(uint64(len(s)))
	w.buf.WriteString(s)
}

// writeBalance stores the minimal big endian bytes, zero is a single 0 length.
func (w *binWriter) writeBalance(b sdk.Balance) {
	w.writeBytes(b.Bytes())
}

func (w *binWriter) writeAddress(a sdk.Address) {
	w.writeString(a.String())
}

func (w *binWriter) writeAsset(a sdk.Asset) {
	w.writeString(a.String())
}

// ------------------------------------------------------------------
// Decoder helpers
// ------------------------------------------------------------------

type binReader struct {
	data []byte
	pos  int
}

// newReader wraps raw bytes so we can peek sequentially w/out copying.
func newReader(data []byte) *binReader {
	return &binReader{data: data}
}

// readByte grabs the next byte and bumps the cursor, aborts on EOF.
func (r *binReader) readByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, errUnexpectedEOF
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *binReader) readBool() (bool, error) {
	b, err := r.readByte()
	if err != nil {
		return false, err
	}
	return b == 1, nil
}

func (r *binReader) readUint64() (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, errUnexpectedEOF
	}
	v := binary.BigEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

func (r *binReader) readVarUint() (uint64, error) {
	v, n := binary.Uvarint(r.data[r.pos:])
	if n <= 0 {
		return 0, errors.New("invalid varuint")
	}
	r.pos += n
	return v, nil
}

// readBytes reads the length prefix and copies the chunk out of the buffer.
func (r *binReader) readBytes() ([]byte, error) {
	l, err := r.readVarUint()
	if err != nil {
		return nil, err
	}
	if l > uint64(len(r.data)-r.pos) {
		return nil, errUnexpectedEOF
	}
	out := make([]byte, l)
	copy(out, r.data[r.pos:r.pos+int(l)])
	r.pos += int(l)
	return out, nil
}

func (r *binReader) readString() (string, error) {
	b, err := r.readBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *binReader) readBalance() (sdk.Balance, error) {
	b, err := r.readBytes()
	if err != nil {
		return sdk.Zero, err
	}
	if len(b) > 32 {
		return sdk.Zero, errors.New("balance overflow")
	}
	return sdk.BalanceFromBytes(b), nil
}

func (r *binReader) readAddress() (sdk.Address, error) {
	s, err := r.readString()
	return sdk.Address(s), err
}

func (r *binReader) readAsset() (sdk.Asset, error) {
	s, err := r.readString()
	return sdk.Asset(s), err
}

// corrupt tags decode failures so callers can classify them.
func corrupt(err error, what string) error {
	return errors.Wrapf(ErrCorruptState, "%s: %v", what, err)
}

// ------------------------------------------------------------------
// Globals
// ------------------------------------------------------------------

// daoState is the single owned aggregate of every contract wide counter.
type daoState struct {
	// LastProposalID is the id the next proposal gets.
	LastProposalID uint64
	// LastBountyID is the id the next bounty gets.
	LastBountyID uint64
	// LockedAmount is the sum of every bond currently held.
	LockedAmount sdk.Balance
	// TotalDelegation equals the sum of every delegation entry.
	TotalDelegation sdk.Balance
	// StakingID is empty until a staking collaborator is wired.
	StakingID sdk.Address
}

func encodeDaoState(s *daoState) []byte {
	w := newWriter()
	w.writeVarUint(s.LastProposalID)
	w.writeVarUint(s.LastBountyID)
	w.writeBalance(s.LockedAmount)
	w.writeBalance(s.TotalDelegation)
	w.writeAddress(s.StakingID)
	return w.bytes()
}

func decodeDaoState(data []byte) (*daoState, error) {
	r := newReader(data)
	s := &daoState{}
	var err error
	if s.LastProposalID, err = r.readVarUint(); err != nil {
		return nil, corrupt(err, "globals")
	}
	if s.LastBountyID, err = r.readVarUint(); err != nil {
		return nil, corrupt(err, "globals")
	}
	if s.LockedAmount, err = r.readBalance(); err != nil {
		return nil, corrupt(err, "globals")
	}
	if s.TotalDelegation, err = r.readBalance(); err != nil {
		return nil, corrupt(err, "globals")
	}
	if s.StakingID, err = r.readAddress(); err != nil {
		return nil, corrupt(err, "globals")
	}
	return s, nil
}

func encodeConfig(c Config) []byte {
	w := newWriter()
	w.writeString(c.Name)
	w.writeString(c.Purpose)
	w.writeString(c.Metadata)
	return w.bytes()
}

func decodeConfig(data []byte) (Config, error) {
	r := newReader(data)
	var c Config
	var err error
	if c.Name, err = r.readString(); err != nil {
		return c, corrupt(err, "config")
	}
	if c.Purpose, err = r.readString(); err != nil {
		return c, corrupt(err, "config")
	}
	if c.Metadata, err = r.readString(); err != nil {
		return c, corrupt(err, "config")
	}
	return c, nil
}

// ------------------------------------------------------------------
// Proposals
// ------------------------------------------------------------------

// encodeProposal writes the binary envelope; the kind rides along as its json document
// so both forms share one schema.
func encodeProposal(p *Proposal) []byte {
	w := newWriter()
	w.buf.WriteByte(proposalVersionCurrent)
	w.writeAddress(p.Proposer)
	w.writeString(p.Description)
	jw := jwriter.Writer{}
	writeKindJSON(&jw, p.Kind)
	kind, _ := jw.BuildBytes()
	w.writeBytes(kind)
	w.buf.WriteByte(byte(p.Status))

	roles := make([]string, 0, len(p.VoteCounts))
	for r := range p.VoteCounts {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	w.writeVarUint(uint64(len(roles)))
	for _, r := range roles {
		w.writeString(r)
		t := p.VoteCounts[r]
		for i := range t {
			w.writeBalance(t[i])
		}
	}

	voters := make([]string, 0, len(p.Votes))
	for a := range p.Votes {
		voters = append(voters, a.String())
	}
	sort.Strings(voters)
	w.writeVarUint(uint64(len(voters)))
	for _, a := range voters {
		w.writeString(a)
		w.buf.WriteByte(byte(p.Votes[sdk.Address(a)]))
	}
	w.writeUint64(p.SubmissionTime)
	w.writeBalance(p.Bond)
	w.writeBalance(p.ClaimBond)
	return w.bytes()
}

func decodeProposal(id uint64, data []byte) (*Proposal, error) {
	r := newReader(data)
	version, err := r.readByte()
	if err != nil {
		return nil, corrupt(err, "proposal")
	}
	if version != proposalVersionCurrent {
		return nil, corrupt(errors.Errorf("version %d", version), "proposal")
	}
	p := &Proposal{ID: id, VoteCounts: map[string]Tally{}, Votes: map[sdk.Address]Vote{}}
	if p.Proposer, err = r.readAddress(); err != nil {
		return nil, corrupt(err, "proposal proposer")
	}
	if p.Description, err = r.readString(); err != nil {
		return nil, corrupt(err, "proposal description")
	}
	kind, err := r.readBytes()
	if err != nil {
		return nil, corrupt(err, "proposal kind")
	}
	l := jlexer.Lexer{Data: kind}
	p.Kind = readKindJSON(&l)
	if err := l.Error(); err != nil {
		return nil, corrupt(err, "proposal kind")
	}
	status, err := r.readByte()
	if err != nil {
		return nil, corrupt(err, "proposal status")
	}
	p.Status = ProposalStatus(status)

	nRoles, err := r.readVarUint()
	if err != nil {
		return nil, corrupt(err, "proposal tallies")
	}
	for i := uint64(0); i < nRoles; i++ {
		role, err := r.readString()
		if err != nil {
			return nil, corrupt(err, "proposal tallies")
		}
		var t Tally
		for j := range t {
			if t[j], err = r.readBalance(); err != nil {
				return nil, corrupt(err, "proposal tallies")
			}
		}
		p.VoteCounts[role] = t
	}

	nVotes, err := r.readVarUint()
	if err != nil {
		return nil, corrupt(err, "proposal votes")
	}
	for i := uint64(0); i < nVotes; i++ {
		voter, err := r.readAddress()
		if err != nil {
			return nil, corrupt(err, "proposal votes")
		}
		v, err := r.readByte()
		if err != nil {
			return nil, corrupt(err, "proposal votes")
		}
		p.Votes[voter] = Vote(v)
	}
	if p.SubmissionTime, err = r.readUint64(); err != nil {
		return nil, corrupt(err, "proposal submission time")
	}
	if p.Bond, err = r.readBalance(); err != nil {
		return nil, corrupt(err, "proposal bond")
	}
	if p.ClaimBond, err = r.readBalance(); err != nil {
		return nil, corrupt(err, "proposal claim bond")
	}
	return p, nil
}

// ------------------------------------------------------------------
// Bounties
// ------------------------------------------------------------------

func encodeBounty(b *Bounty) []byte {
	w := newWriter()
	w.buf.WriteByte(bountyVersionCurrent)
	w.writeString(b.Description)
	w.writeAsset(b.Token)
	w.writeBalance(b.Amount)
	w.writeVarUint(uint64(b.Times))
	w.writeUint64(b.MaxDeadline)
	return w.bytes()
}

func decodeBounty(id uint64, data []byte) (*Bounty, error) {
	r := newReader(data)
	version, err := r.readByte()
	if err != nil || version != bountyVersionCurrent {
		return nil, corrupt(errors.Errorf("version %d: %v", version, err), "bounty")
	}
	b := &Bounty{ID: id}
	if b.Description, err = r.readString(); err != nil {
		return nil, corrupt(err, "bounty description")
	}
	if b.Token, err = r.readAsset(); err != nil {
		return nil, corrupt(err, "bounty token")
	}
	if b.Amount, err = r.readBalance(); err != nil {
		return nil, corrupt(err, "bounty amount")
	}
	times, err := r.readVarUint()
	if err != nil {
		return nil, corrupt(err, "bounty times")
	}
	b.Times = uint32(times)
	if b.MaxDeadline, err = r.readUint64(); err != nil {
		return nil, corrupt(err, "bounty deadline")
	}
	return b, nil
}

func encodeClaims(claims []BountyClaim) []byte {
	w := newWriter()
	w.writeVarUint(uint64(len(claims)))
	for _, c := range claims {
		w.writeVarUint(c.BountyID)
		w.writeUint64(c.StartTime)
		w.writeUint64(c.Deadline)
		w.writeBool(c.Completed)
		w.writeBalance(c.Bond)
	}
	return w.bytes()
}

func decodeClaims(data []byte) ([]BountyClaim, error) {
	r := newReader(data)
	n, err := r.readVarUint()
	if err != nil {
		return nil, corrupt(err, "claims")
	}
	out := make([]BountyClaim, 0, n)
	for i := uint64(0); i < n; i++ {
		var c BountyClaim
		if c.BountyID, err = r.readVarUint(); err != nil {
			return nil, corrupt(err, "claims")
		}
		if c.StartTime, err = r.readUint64(); err != nil {
			return nil, corrupt(err, "claims")
		}
		if c.Deadline, err = r.readUint64(); err != nil {
			return nil, corrupt(err, "claims")
		}
		if c.Completed, err = r.readBool(); err != nil {
			return nil, corrupt(err, "claims")
		}
		if c.Bond, err = r.readBalance(); err != nil {
			return nil, corrupt(err, "claims")
		}
		out = append(out, c)
	}
	return out, nil
}

// ------------------------------------------------------------------
// Pending calls and delegation
// ------------------------------------------------------------------

func encodePendingCall(p *PendingCall) []byte {
	w := newWriter()
	w.writeString(p.CallID)
	w.buf.WriteByte(byte(p.Kind))
	w.writeUint64(p.ScheduledAt)
	return w.bytes()
}

func decodePendingCall(proposalID uint64, data []byte) (*PendingCall, error) {
	r := newReader(data)
	p := &PendingCall{ProposalID: proposalID}
	var err error
	if p.CallID, err = r.readString(); err != nil {
		return nil, corrupt(err, "pending call")
	}
	kind, err := r.readByte()
	if err != nil {
		return nil, corrupt(err, "pending call")
	}
	p.Kind = PendingKind(kind)
	if p.ScheduledAt, err = r.readUint64(); err != nil {
		return nil, corrupt(err, "pending call")
	}
	return p, nil
}

func encodeDelegation(b sdk.Balance) []byte {
	w := newWriter()
	w.writeBalance(b)
	return w.bytes()
}

func decodeDelegation(data []byte) (sdk.Balance, error) {
	b, err := newReader(data).readBalance()
	if err != nil {
		return sdk.Zero, corrupt(err, "delegation")
	}
	return b, nil
}
