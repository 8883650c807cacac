package lrcp

// lineReverser implements the §4.2 application hook: scan recv_buf for
// complete lines, reverse each line's bytes, and enqueue the reversal plus a
// trailing newline for send. A partial trailing line is retained across
// calls.
type lineReverser struct {
	sess    *Session
	partial []byte
}

func newLineReverser(sess *Session) func([]byte) {
	lr := &lineReverser{sess: sess}
	return lr.onData
}

func (lr *lineReverser) onData(newBytes []byte) {
	lr.partial = append(lr.partial, newBytes...)

	for {
		i := indexByte(lr.partial, '\n')
		if i < 0 {
			break
		}
		line := lr.partial[:i]
		lr.partial = lr.partial[i+1:]

		reversed := reverseBytes(line)
		out := make([]byte, 0, len(reversed)+1)
		out = append(out, reversed...)
		out = append(out, '\n')
		lr.sess.Send(out)
	}
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}
