// Package triage 实现聊天入口处的紧急关键词分流：
// 命中关键词时直接返回固定的急救指引，否则把用户文本包装进提示词模板后转发给外部助手。
package triage
