package oracle

import (
	"fmt"

	"stepgrade/internal/taxonomy"
)

type chinesePrompts struct{}

func (chinesePrompts) judge(kind JudgeKind, actual, expected string, qc Context) Request {
	switch kind {
	case JudgeAnswerStrict:
		return Request{
			Operation: OpJudgeAnswerStrict,
			System:    "你是一个专业的数学问题答案评估助手",
			User: fmt.Sprintf(`请基于以下信息，判断两个答案是否在含义上等价：
具体问题：
%s
实际回答：
%s
预期回答：
%s
请只回答"正确"或"错误"来表示这两个答案是否表达相同的含义。评判时请考虑数学表达式、单位等细节是否等价。`, qc.Question, actual, expected),
		}
	case JudgeValues:
		return Request{
			Operation: OpJudgeValues,
			System:    "你是一个专业的物理计算结果评估助手",
			User: fmt.Sprintf(`请判断以下结果是否等价：
预期结果：
%s
实际内容：
%s
请逐个判断所有结果，有一次错误的也是错误，只回答"正确"或"错误"。如果正确不用解释，如果有错误也用一两句话简单说明一下。`, expected, actual),
		}
	case JudgeEquations:
		return Request{
			Operation: OpJudgeEquations,
			System:    "你是一个专业的物理公式评估助手",
			User: fmt.Sprintf(`请判断以下物理公式是否等价,不考虑单位：
预期公式：
%s
实际内容：
%s
请判断所有公式，只回答"正确"或"错误"，如果正确不用解释，如果有错误也用一两句话简单说明一下。`, expected, actual),
		}
	default:
		return Request{
			Operation: OpJudgeAnswer,
			System:    "你是一个专业的数学问题答案评估助手",
			User: fmt.Sprintf(`请基于以下信息，判断两个答案是否在含义上等价，不考虑单位：
具体问题：
%s
实际回答：
%s
预期回答：
%s
请只回答"正确"或"错误"来表示这两个答案是否表达相同的含义。评判时请主要考虑数学表达式等细节是否等价，不需要考虑单位。`, qc.Question, actual, expected),
		}
	}
}

func (chinesePrompts) extract(kind ExtractKind, content string, names []string, qc Context) Request {
	instruction := "请只返回相关的结果内容，不要相关公式，不要添加任何解释。"
	if kind == ExtractEquations {
		instruction = "返回得到所要求物理量的相关公式\n请只返回相关的内容，不要添加任何解释。"
	}
	return Request{
		Operation: kind.String(),
		System:    "你是一个专业的物理问题分析助手",
		User: fmt.Sprintf(`基于以下解题步骤内容，请提取与以下物理量相关的内容：
问题背景：%s
具体问题：%s
需要提取的物理量：
%s
解题步骤内容：%s
%s`, qc.Background, qc.Question, bulletList(names), content, instruction),
	}
}

func (chinesePrompts) diagnose(reference, actual string) Request {
	return Request{
		Operation: OpDiagnose,
		System:    "你是一个专业的物理问题错误分析助手",
		User: fmt.Sprintf(`请分析以下解题步骤中的错误：
标准答案内容：
%s
实际内容：
%s
再请用一两句简洁得说明错误原因,用英文回答问题
`, reference, actual),
	}
}

func (chinesePrompts) classify(reference, actual, explanation string, entries []taxonomy.Entry) Request {
	return Request{
		Operation: OpClassify,
		System:    "你是一个专业的物理问题错误分析助手",
		User: fmt.Sprintf(`请分析以下解题步骤中的错误：
标准答案内容：%s
实际内容：
%s
错误分析：%s
在以下错误原因中挑选一个，
%s
只返回错误原因种类即可，例如%s
`, reference, actual, explanation, taxonomyList(entries), taxonomy.CalculationProcess),
	}
}

func (chinesePrompts) extractAnswer(raw, question string, subQuestion int) Request {
	return Request{
		Operation: OpExtractAnswer,
		System:    "你是一个专业的答案提取助手，请只返回提取到的答案，不要添加任何额外的解释。",
		User: fmt.Sprintf(`请从以下输出文本中提取针对特定问题的答案。
具体问题：
%s

输出文本：
%s

请直接返回答案，不需要任何解释或额外文字。答案通常在'sub_question_%d_answer:'后面。`, question, raw, subQuestion),
	}
}

func (chinesePrompts) reformat(raw string, structure map[string]string) Request {
	return reformatRequest(raw, structure)
}
