package vision

// AnalysisPrompt instructs the model to extract every visible piece of text
// from the image and proofread it. The reply must follow the three sections
// below and must not include a corrected rewrite of the whole text.
const AnalysisPrompt = `이 이미지에 있는 모든 텍스트를 추출한 뒤, 분석 결과만 깔끔하게 알려줘. 전체 교정본은 포함하지 마.

응답 형식은 아래를 엄격히 지켜줘:

[추출된 원본 텍스트]
(이미지에서 읽어낸 텍스트 전체)

[오탈자 체크]
- (틀린 단어) -> (맞는 단어)
(없으면 "오탈자가 없습니다."라고 표시)

[문법 및 표현 분석]
- (어색하거나 틀린 문장) -> (수정된 명확한 문장)
(이유: 왜 틀렸는지 또는 더 나은 표현인 이유를 짧게 설명)
(없으면 "문법적으로 완벽합니다."라고 표시)`
