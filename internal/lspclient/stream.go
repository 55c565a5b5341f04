package lspclient

import "io"

// pipeRWC adapts a subprocess's stdin/stdout pipes to the single
// io.ReadWriteCloser a jsonrpc2.Stream expects, the same way
// dphaener-conduit's stdrwc adapts os.Stdin/os.Stdout for its own LSP
// connection — here the pipes belong to a spawned peer rather than to the
// bridge's own stdio.
type pipeRWC struct {
	stdout io.ReadCloser
	stdin  io.WriteCloser
}

func (p pipeRWC) Read(b []byte) (int, error)  { return p.stdout.Read(b) }
func (p pipeRWC) Write(b []byte) (int, error) { return p.stdin.Write(b) }

func (p pipeRWC) Close() error {
	err1 := p.stdin.Close()
	err2 := p.stdout.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
