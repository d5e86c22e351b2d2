package milvus

import (
	"Colabi/internal/config"
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

var (
	instance *MilvusClient
	once     sync.Once
	initErr  error
)

// MilvusClient 包含了 Milvus 客户端实例和相关配置。
type MilvusClient struct {
	Client client.Client        // Milvus 客户端实例。
	Config *config.MilvusConfig // Milvus 配置。
}

// SearchHit 是一次相似度搜索返回的单个片段及其相似度得分。
type SearchHit struct {
	Text  string  // 文档片段文本
	Score float32 // 相似度得分 (COSINE, 越大越相似)
}

// GetClient 使用单例模式创建并返回一个 Milvus 客户端实例。
func GetClient(ctx context.Context, cfg *config.MilvusConfig) (*MilvusClient, error) {
	once.Do(func() {
		// 使用配置中的地址创建 Milvus 客户端。
		c, err := client.NewClient(ctx, client.Config{Address: cfg.Address})
		if err != nil {
			initErr = fmt.Errorf("无法连接到 Milvus: %w", err)
			return
		}
		log.Println("✅ 成功连接到 Milvus!")
		instance = &MilvusClient{Client: c, Config: cfg}
	})
	return instance, initErr
}

// Close 安全地关闭与 Milvus 的连接。
func (c *MilvusClient) Close() {
	if c.Client != nil {
		c.Client.Close()
		log.Println("ℹ️ 已安全关闭 Milvus 连接。")
	}
}

// HealthCheck 检查 Milvus 连接的健康状况。
func (c *MilvusClient) HealthCheck(ctx context.Context) error {
	if c.Client == nil {
		return fmt.Errorf("Milvus client is nil")
	}
	_, err := c.Client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("Milvus health check failed: %w", err)
	}
	return nil
}

// EnsureCollection 确保文档集合存在，不存在时按配置创建。
// Schema 固定为: id (VarChar, PK), chunk (VarChar), embedding (FloatVector)。
func (c *MilvusClient) EnsureCollection(ctx context.Context) error {
	collName := c.Config.CollectionName

	has, err := c.Client.HasCollection(ctx, collName)
	if err != nil {
		return fmt.Errorf("检查集合 '%s' 失败: %w", collName, err)
	}
	if has {
		return nil
	}

	schema := entity.NewSchema().
		WithName(collName).
		WithDescription("agent private document chunks").
		WithField(entity.NewField().WithName("id").WithDataType(entity.FieldTypeVarChar).WithMaxLength(64).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName("chunk").WithDataType(entity.FieldTypeVarChar).WithMaxLength(8192)).
		WithField(entity.NewField().WithName(c.Config.VectorField).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(c.Config.Dim)))

	if err := c.Client.CreateCollection(ctx, schema, 1); err != nil {
		return fmt.Errorf("创建集合 '%s' 失败: %w", collName, err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.COSINE, 128)
	if err != nil {
		return fmt.Errorf("构建索引参数失败: %w", err)
	}
	if err := c.Client.CreateIndex(ctx, collName, c.Config.VectorField, idx, false); err != nil {
		return fmt.Errorf("创建索引失败: %w", err)
	}

	log.Printf("✅ 成功创建集合 '%s'。", collName)
	return nil
}

// EnsurePartition 确保指定命名空间对应的分区存在。
func (c *MilvusClient) EnsurePartition(ctx context.Context, partitionName string) error {
	collName := c.Config.CollectionName
	has, err := c.Client.HasPartition(ctx, collName, partitionName)
	if err != nil {
		return fmt.Errorf("检查分区 '%s' 失败: %w", partitionName, err)
	}
	if !has {
		if err := c.Client.CreatePartition(ctx, collName, partitionName); err != nil {
			return fmt.Errorf("创建分区 '%s' 失败: %w", partitionName, err)
		}
	}
	return nil
}

// InsertBatch 将一批文档片段及其向量插入到指定分区。
func (c *MilvusClient) InsertBatch(ctx context.Context, partitionName string, chunks []string, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch between number of chunks (%d) and vectors (%d)", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil // Nothing to insert
	}

	// 为每个片段生成 UUID 主键
	ids := make([]string, len(chunks))
	for i := range chunks {
		ids[i] = uuid.New().String()
	}

	idCol := entity.NewColumnVarChar("id", ids)
	chunkCol := entity.NewColumnVarChar("chunk", chunks)
	vectorCol := entity.NewColumnFloatVector(c.Config.VectorField, len(vectors[0]), vectors)

	_, err := c.Client.Insert(ctx, c.Config.CollectionName, partitionName, idCol, chunkCol, vectorCol)
	if err != nil {
		return fmt.Errorf("failed to batch insert data into Milvus: %w", err)
	}

	log.Printf("✅ Successfully inserted %d records into partition '%s'.", len(chunks), partitionName)
	return nil
}

// Search 在指定的分区中执行向量相似度搜索，返回片段文本与得分。
func (c *MilvusClient) Search(ctx context.Context, partitionName string, topK int, vector []float32) ([]SearchHit, error) {
	collName := c.Config.CollectionName

	if err := c.Client.LoadCollection(ctx, collName, false); err != nil {
		return nil, fmt.Errorf("加载集合 '%s' 失败: %w", collName, err)
	}

	sp, _ := entity.NewIndexIvfFlatSearchParam(10)

	searchVectors := []entity.Vector{entity.FloatVector(vector)}

	results, err := c.Client.Search(
		ctx,
		collName,
		[]string{partitionName},
		"",
		[]string{"chunk"},
		searchVectors,
		c.Config.VectorField,
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("在分区 '%s' 中搜索失败: %w", partitionName, err)
	}

	var hits []SearchHit
	for _, res := range results {
		var chunkCol *entity.ColumnVarChar
		for _, field := range res.Fields {
			if field.Name() == "chunk" {
				chunkCol, _ = field.(*entity.ColumnVarChar)
			}
		}
		if chunkCol == nil {
			continue
		}
		for i := 0; i < res.ResultCount; i++ {
			text, err := chunkCol.ValueByIdx(i)
			if err != nil {
				continue
			}
			score := float32(0)
			if i < len(res.Scores) {
				score = res.Scores[i]
			}
			hits = append(hits, SearchHit{Text: text, Score: score})
		}
	}

	log.Printf("✅ 搜索完成，找到 %d 个结果。", len(hits))
	return hits, nil
}
