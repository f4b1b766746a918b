/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: open_other.go
Description: File open flags for content reads on non-unix platforms.
*/

//go:build !darwin && !freebsd && !linux

package detect

import "os"

const openFlags = os.O_RDONLY
