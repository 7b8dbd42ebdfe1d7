//go:build !unix

package netwrk

import "syscall"

func reuseAddr(network, address string, c syscall.RawConn) error {
	return nil
}
