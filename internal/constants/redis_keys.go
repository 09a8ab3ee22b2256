package constants

// Redis Key 前缀和格式常量
// 使用统一的命名规范: app:{module}:{entity}:{unique_id}
const (
	// AppPrefix 是所有Redis Key的统一应用前缀
	AppPrefix = "ats"

	// JobModulePrefix JD模块
	JobModulePrefix = "jd"

	// EntityVector 向量实体
	EntityVector = "vector"
	// EntityKeywords 关键词分组实体
	EntityKeywords = "keywords"

	// KeyJDVector JD向量缓存 (HASH)
	// 格式: ats:jd:vector:{sha256(jd)}:{model}
	KeyJDVector = AppPrefix + ":" + JobModulePrefix + ":" + EntityVector + ":%s"

	// KeyJDKeywords JD关键词分组缓存 (STRING, JSON)
	// 格式: ats:jd:keywords:{sha256(jd)}
	KeyJDKeywords = AppPrefix + ":" + JobModulePrefix + ":" + EntityKeywords + ":%s"
)
