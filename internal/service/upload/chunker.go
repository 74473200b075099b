package upload

// Chunker 固定窗口分块器
// 以固定窗口滑动切分文本，相邻块重叠 overlap 个字符；
// 末块可以短于窗口，空文本产出零块
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker 创建分块器
// overlap 必须小于 chunkSize，非法参数回退到默认值
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1024
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 10
	}
	return &Chunker{
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// Split 切分文本
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}

	// 每个步长起点都产出一块，块数恒为 ceil(len/stride)
	stride := c.chunkSize - c.overlap
	chunks := make([]string, 0, (len(text)+stride-1)/stride)

	for start := 0; start < len(text); start += stride {
		end := start + c.chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
	}

	return chunks
}
