//go:build !unix

package ipc

func diagnoseDial(_ string, err error) error {
	return err
}
