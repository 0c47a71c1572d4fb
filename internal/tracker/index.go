package tracker

import "net"

// FileSubmission is one file entry from a reg_file request, already
// expanded by the peer into its digests (spec.md §6).
type FileSubmission struct {
	Filename  string
	Bytes     int64
	MD5Full   string
	MD5Chunks []string
}

// RegisterFiles implements register_file (spec.md §4.4). For each entry it
// returns whether registration succeeded, in input order, as a slice of
// single-key maps so JSON encodes it as the spec's ordered
// "[{filename: bool}, ...]" shape.
func (idx *Index) RegisterFiles(address string, files []FileSubmission) []map[string]bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	results := make([]map[string]bool, 0, len(files))
	for _, f := range files {
		if _, exists := idx.files[f.Filename]; exists {
			results = append(results, map[string]bool{f.Filename: false})
			continue
		}
		chunks := make([]ChunkRecord, len(f.MD5Chunks))
		for i, md5 := range f.MD5Chunks {
			chunks[i] = ChunkRecord{
				ID:    i,
				MD5:   md5,
				Peers: map[string]struct{}{address: {}},
			}
		}
		idx.files[f.Filename] = &FileRecord{
			Filename: f.Filename,
			Bytes:    f.Bytes,
			MD5:      f.MD5Full,
			Chunks:   chunks,
		}
		results = append(results, map[string]bool{f.Filename: true})
	}
	return results
}

// FileSummary is one entry of file_list's result (spec.md §4.4).
type FileSummary struct {
	Filename string `json:"filename"`
	Bytes    int64  `json:"bytes"`
}

// FileListResult is file_list's wire response: {count, result: [...]}.
type FileListResult struct {
	Count  int           `json:"count"`
	Result []FileSummary `json:"result"`
}

// ListFiles implements file_list.
func (idx *Index) ListFiles() []FileSummary {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	out := make([]FileSummary, 0, len(idx.files))
	for _, f := range idx.files {
		out = append(out, FileSummary{Filename: f.Filename, Bytes: f.Bytes})
	}
	return out
}

// ChunkRef is one chunk entry in an AddressManifest; MD5 is populated only
// when IncludeMD5 was requested.
type ChunkRef struct {
	ID  int    `json:"id"`
	MD5 string `json:"md5,omitempty"`
}

// AddressManifest lists the chunks a given address is known to hold, split
// into host/port the way file_locations' wire response shapes it
// (spec.md §4.4: "{host, port, chunks: […]}"). Address is kept alongside
// for callers that want to dial the peer without rejoining host:port.
type AddressManifest struct {
	Address string     `json:"-"`
	Host    string     `json:"host"`
	Port    string     `json:"port"`
	Chunks  []ChunkRef `json:"chunks"`
}

func splitAddress(address string) (host, port string) {
	h, p, err := net.SplitHostPort(address)
	if err != nil {
		return address, ""
	}
	return h, p
}

// LocResult is file_locations' result (spec.md §4.4). Addresses is an
// empty, non-nil slice (encodes as an empty list) when the filename is not
// indexed.
type LocResult struct {
	Bytes     int64             `json:"bytes"`
	MD5       string            `json:"md5"`
	Count     int               `json:"count"`
	Addresses []AddressManifest `json:"addresses"`
}

// Locate implements file_locations: group, by address, every chunk id (and
// optionally digest) that address is known to hold for filename.
func (idx *Index) Locate(filename string, includeMD5 bool) LocResult {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	f, ok := idx.files[filename]
	if !ok {
		return LocResult{Addresses: []AddressManifest{}}
	}

	order := make([]string, 0)
	byAddr := make(map[string][]ChunkRef)
	for _, c := range f.Chunks {
		for addr := range c.Peers {
			if _, seen := byAddr[addr]; !seen {
				order = append(order, addr)
			}
			ref := ChunkRef{ID: c.ID}
			if includeMD5 {
				ref.MD5 = c.MD5
			}
			byAddr[addr] = append(byAddr[addr], ref)
		}
	}

	addresses := make([]AddressManifest, 0, len(order))
	for _, addr := range order {
		host, port := splitAddress(addr)
		addresses = append(addresses, AddressManifest{Address: addr, Host: host, Port: port, Chunks: byAddr[addr]})
	}

	return LocResult{
		Bytes:     f.Bytes,
		MD5:       f.MD5,
		Count:     len(addresses),
		Addresses: addresses,
	}
}

// RegisterChunk implements register_chunk: it succeeds only if the file is
// indexed, chunkID is in range, and the supplied digest matches the one on
// record; on success it adds address to that chunk's peer set.
func (idx *Index) RegisterChunk(address, filename string, chunkID int, md5 string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	f, ok := idx.files[filename]
	if !ok {
		return false
	}
	if chunkID < 0 || chunkID >= len(f.Chunks) {
		return false
	}
	if f.Chunks[chunkID].MD5 != md5 {
		return false
	}
	f.Chunks[chunkID].Peers[address] = struct{}{}
	return true
}

// Leave implements leave (spec.md §4.4 and the ordering fix noted in §9:
// remove the address first, then test for emptiness, then mark the file
// for deletion).
func (idx *Index) Leave(address string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for filename, f := range idx.files {
		emptied := false
		for i := range f.Chunks {
			delete(f.Chunks[i].Peers, address)
			if len(f.Chunks[i].Peers) == 0 {
				emptied = true
			}
		}
		if emptied {
			delete(idx.files, filename)
		}
	}
}
