// Package profile 记录产物类型（profile）与缓存文件扩展名的对应关系。
//
// 缓存核心只把扩展名原样拼接到哈希之后，是否带前导点由调用方决定；本包统一
// 约定扩展名总是以 "." 开头（NormalizeExtension），CLI、HTTP 与配置层都经由
// profile 解析扩展名，从而在整个系统内保持同一种写法。
//
// 内置 profile 在 init() 中注册，配置文件中的 [[Profile]] 由 config 包单独解析，
// 不会写入全局注册表。
package profile
