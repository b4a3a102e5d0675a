package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type RAGConfig struct {
	ChunkSize    int    `yaml:"chunk_size"`
	ChunkOverlap int    `yaml:"chunk_overlap"`
	MinChunkSize int    `yaml:"min_chunk_size"`
	MaxChunkSize int    `yaml:"max_chunk_size"`
	TopK         int    `yaml:"top_k"`
	DocsPath     string `yaml:"docs_path"`
}

type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	Key         string  `yaml:"key"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type VectorDBConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	InMemory   bool   `yaml:"in_memory"`
}

type Config struct {
	RAG      RAGConfig      `yaml:"rag"`
	EmbedLLM LLMConfig      `yaml:"embed_llm"`
	ChatLLM  LLMConfig      `yaml:"chat_llm"`
	Database DatabaseConfig `yaml:"database"`
	VectorDB VectorDBConfig `yaml:"vectordb"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = 500
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = 100
	}
	if c.RAG.MinChunkSize == 0 {
		c.RAG.MinChunkSize = 100
	}
	if c.RAG.MaxChunkSize == 0 {
		c.RAG.MaxChunkSize = c.RAG.ChunkSize
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = 5
	}
	if c.RAG.DocsPath == "" {
		c.RAG.DocsPath = "./knowledge-docs"
	}
	if c.ChatLLM.Temperature == 0 {
		c.ChatLLM.Temperature = 0.7
	}
	if c.ChatLLM.MaxTokens == 0 {
		c.ChatLLM.MaxTokens = 500
	}
	if c.VectorDB.Path == "" {
		c.VectorDB.Path = "./vectordb"
	}
	if c.VectorDB.Collection == "" {
		c.VectorDB.Collection = "knowledge_docs"
	}
	// API keys come from the environment when not set in the file
	if c.ChatLLM.Key == "" {
		c.ChatLLM.Key = os.Getenv("OPENAI_API_KEY")
	}
	if c.EmbedLLM.Key == "" {
		c.EmbedLLM.Key = os.Getenv("OPENAI_API_KEY")
	}
}
