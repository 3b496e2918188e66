package format

// binarySniffBytes is how much of a file IsBinaryContent inspects.
const binarySniffBytes = 512

// IsBinaryContent reports whether data looks like binary content: a null byte in the
// first 512 bytes. Text documents never contain one in any supported encoding.
func IsBinaryContent(data []byte) bool {
	checkSize := min(len(data), binarySniffBytes)
	for i := 0; i < checkSize; i++ {
		if data[i] == 0 {
			return true
		}
	}
	return false
}
