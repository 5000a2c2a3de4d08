/*
 * Copyright 2024 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package packstream

// Skip advances past one value at buf[0] without allocating or
// touching a mempool.Pool, returning the number of bytes the value
// spans.
func Skip(buf []byte) (int, error) {
	return skipValue(buf, defaultRecursionDepth)
}

func skipValue(buf []byte, depth int) (int, error) {
	if depth == 0 {
		return 0, errUnknownMarker(0)
	}
	if len(buf) == 0 {
		return 0, errBufferTooShort
	}
	marker := buf[0]
	switch {
	case marker <= markerTinyIntPosMax, marker >= markerTinyIntNegMin:
		return 1, nil
	case marker >= markerTinyStringMin && marker <= markerTinyStringMax:
		return skipFixed(buf[1:], int(marker&0x0F), 1)
	case marker >= markerTinyListMin && marker <= markerTinyListMax:
		return skipList(buf[1:], int(marker&0x0F), depth, 1)
	case marker >= markerTinyMapMin && marker <= markerTinyMapMax:
		return skipMap(buf[1:], int(marker&0x0F), depth, 1)
	case marker >= markerTinyStructMin && marker <= markerTinyStructMax:
		return skipStruct(buf[1:], int(marker&0x0F), depth, 1)
	}
	switch marker {
	case markerNull, markerFalse, markerTrue:
		return 1, nil
	case markerFloat:
		return skipFixed(buf[1:], 8, 1)
	case markerInt8:
		return skipFixed(buf[1:], 1, 1)
	case markerInt16:
		return skipFixed(buf[1:], 2, 1)
	case markerInt32:
		return skipFixed(buf[1:], 4, 1)
	case markerInt64:
		return skipFixed(buf[1:], 8, 1)
	case markerBytes8, markerString8:
		return skipLenPrefixed(buf[1:], 1, 1)
	case markerBytes16, markerString16:
		return skipLenPrefixed(buf[1:], 2, 1)
	case markerBytes32, markerString32:
		return skipLenPrefixed(buf[1:], 4, 1)
	case markerList8:
		return skipLenPrefixedList(buf[1:], 1, depth, 1)
	case markerList16:
		return skipLenPrefixedList(buf[1:], 2, depth, 1)
	case markerList32:
		return skipLenPrefixedList(buf[1:], 4, depth, 1)
	case markerMap8:
		return skipLenPrefixedMap(buf[1:], 1, depth, 1)
	case markerMap16:
		return skipLenPrefixedMap(buf[1:], 2, depth, 1)
	case markerMap32:
		return skipLenPrefixedMap(buf[1:], 4, depth, 1)
	case markerStruct8:
		return skipLenPrefixedStruct(buf[1:], 1, depth, 1)
	case markerStruct16:
		return skipLenPrefixedStruct(buf[1:], 2, depth, 1)
	}
	return 0, errUnknownMarker(marker)
}

func skipFixed(buf []byte, n, consumed int) (int, error) {
	if len(buf) < n {
		return 0, errBufferTooShort
	}
	return consumed + n, nil
}

func skipLenPrefixed(buf []byte, width, consumed int) (int, error) {
	n, l, err := readLen(buf, width)
	if err != nil {
		return 0, err
	}
	return skipFixed(buf[l:], n, consumed+l)
}

func skipList(buf []byte, n, depth, consumed int) (int, error) {
	off := 0
	for i := 0; i < n; i++ {
		l, err := skipValue(buf[off:], depth-1)
		if err != nil {
			return 0, err
		}
		off += l
	}
	return consumed + off, nil
}

func skipLenPrefixedList(buf []byte, width, depth, consumed int) (int, error) {
	n, l, err := readLen(buf, width)
	if err != nil {
		return 0, err
	}
	return skipList(buf[l:], n, depth, consumed+l)
}

func skipMap(buf []byte, n, depth, consumed int) (int, error) {
	off := 0
	for i := 0; i < n; i++ {
		l, err := skipValue(buf[off:], depth-1)
		if err != nil {
			return 0, err
		}
		off += l
		l2, err := skipValue(buf[off:], depth-1)
		if err != nil {
			return 0, err
		}
		off += l2
	}
	return consumed + off, nil
}

func skipLenPrefixedMap(buf []byte, width, depth, consumed int) (int, error) {
	n, l, err := readLen(buf, width)
	if err != nil {
		return 0, err
	}
	return skipMap(buf[l:], n, depth, consumed+l)
}

func skipStruct(buf []byte, n, depth, consumed int) (int, error) {
	if len(buf) < 1 {
		return 0, errBufferTooShort
	}
	off := 1
	for i := 0; i < n; i++ {
		l, err := skipValue(buf[off:], depth-1)
		if err != nil {
			return 0, err
		}
		off += l
	}
	return consumed + off, nil
}

func skipLenPrefixedStruct(buf []byte, width, depth, consumed int) (int, error) {
	n, l, err := readLen(buf, width)
	if err != nil {
		return 0, err
	}
	return skipStruct(buf[l:], n, depth, consumed+l)
}
