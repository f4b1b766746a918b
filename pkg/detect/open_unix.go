/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: open_unix.go
Description: File open flags for content reads on unix platforms.
*/

//go:build darwin || freebsd || linux

package detect

import (
	"os"

	"golang.org/x/sys/unix"
)

// openFlags never blocks on special files; regular file reads are unaffected
const openFlags = os.O_RDONLY | unix.O_NONBLOCK
